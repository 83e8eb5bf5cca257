package middleware

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns a middleware that enforces that the authenticated
// caller holds one of the given roles. Rejections are logged with the acting
// principal and the attempted route so denied admin-only operations leave an
// audit trail. It assumes JWTAuth already ran.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := Role(c)
			if !allowed[role] {
				log.Printf("authz: denied user=%q role=%q on %s %s",
					Username(c), role, c.Request().Method, c.Path())
				return c.JSON(http.StatusForbidden, echo.Map{
					"status": "error", "message": "forbidden",
				})
			}
			return next(c)
		}
	}
}
