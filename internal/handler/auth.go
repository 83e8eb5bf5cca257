// Package handler binds the HTTP surface to the repositories and services.
// Every response uses one envelope: {"status":"success", ...} or
// {"status":"error","message":...}.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/allelectronic/repair-service/internal/config"
	"github.com/allelectronic/repair-service/internal/middleware"
	"github.com/allelectronic/repair-service/internal/model"
	"github.com/allelectronic/repair-service/internal/repository"
	"github.com/allelectronic/repair-service/internal/utils"
)

// AccountStore is the slice of the account repository the handlers need.
type AccountStore interface {
	Create(ctx context.Context, username, password, role string) (model.Account, error)
	Authenticate(ctx context.Context, username, password string) (model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	Update(ctx context.Context, id, newPassword, newRole string) error
	Delete(ctx context.Context, id, actingUsername string) (model.Account, error)
}

// AuthHandler serves login and identity endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts AccountStore
}

func NewAuthHandler(cfg config.Config, accounts AccountStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates an account and issues an access token embedding the
// account's username and role. Every authentication failure produces the
// same generic message.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "invalid body",
		})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "Username and password required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"status": "error", "message": "Invalid credentials",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status": "error", "message": "Server error",
		})
	}

	ttl := time.Duration(h.Cfg.AccessTTLHours) * time.Hour
	token, exp, err := utils.NewAccessToken(h.Cfg.JWTSecret, acc.Username, acc.Role, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status": "error", "message": "Server error",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"token":   token,
		"expires": exp,
		"user": echo.Map{
			"username": acc.Username,
			"role":     acc.Role,
		},
	})
}

// Me returns the identity embedded in the presented token. Clients re-derive
// their displayed role from this rather than trusting any locally cached
// copy.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"user": echo.Map{
			"username": middleware.Username(c),
			"role":     middleware.Role(c),
		},
	})
}
