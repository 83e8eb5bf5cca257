// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/allelectronic/repair-service/internal/config"
	"github.com/allelectronic/repair-service/internal/handler"
	"github.com/allelectronic/repair-service/internal/middleware"
	"github.com/allelectronic/repair-service/internal/model"
)

// Handlers bundles everything Register needs.
type Handlers struct {
	Intake *handler.IntakeHandler
	Auth   *handler.AuthHandler
	Admin  *handler.AdminRequestHandler
	Users  *handler.UserHandler
}

// Register sets up all routes. The public intake form is rate limited; every
// /v1 route past login requires a valid token, and destructive or
// user-management routes additionally require the admin role.
func Register(e *echo.Echo, cfg config.Config, rl config.RateLimitConfig, rdb *redis.Client, h Handlers) {
	e.GET("/healthz", handler.Health)

	// Public intake. Duplicate detection and validation live in the handler.
	e.POST("/api/repair-request", h.Intake.Submit, middleware.RateLimit(rl, rdb))

	e.POST("/v1/auth/login", h.Auth.Login)

	v1 := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	v1.GET("/me", h.Auth.Me)

	// Any authenticated role may read and triage.
	v1.POST("/admin/requests", h.Admin.List)
	v1.POST("/admin/repair-request", h.Admin.Get)
	v1.POST("/admin/update-status", h.Admin.UpdateStatus)
	v1.GET("/admin/requests/export", h.Admin.ExportCSV)

	// Destructive operations and account management are admin-only.
	adm := v1.Group("", middleware.RequireRole(model.RoleAdmin))
	adm.POST("/admin/delete-requests", h.Admin.Delete)
	adm.GET("/admin/users", h.Users.List)
	adm.POST("/admin/users", h.Users.Create)
	adm.PUT("/admin/users", h.Users.Update)
	adm.DELETE("/admin/users", h.Users.Delete)
}
