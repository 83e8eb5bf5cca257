// Package middleware contains the authorization guard: bearer token
// verification and role gating for the back-office endpoints.
package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/allelectronic/repair-service/internal/utils"
)

// Context keys under which JWTAuth stores the verified claims.
const (
	CtxUsername = "username"
	CtxRole     = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's username and role claims into the request context.
// Missing, malformed, expired and badly signed tokens all yield the same
// generic 401; the distinction is logged server-side only.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"status": "error", "message": "unauthorized",
				})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				log.Printf("auth: rejected token on %s %s from %s: %v",
					c.Request().Method, c.Path(), c.RealIP(), err)
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"status": "error", "message": "unauthorized",
				})
			}

			// The claims in the token are the sole source of truth for the
			// caller's identity and role on this request.
			c.Set(CtxUsername, claims.Username)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}

// Username returns the authenticated username from the context, or "" when
// the request did not pass JWTAuth.
func Username(c echo.Context) string {
	if s, ok := c.Get(CtxUsername).(string); ok {
		return s
	}
	return ""
}

// Role returns the authenticated role from the context.
func Role(c echo.Context) string {
	if s, ok := c.Get(CtxRole).(string); ok {
		return s
	}
	return ""
}
