package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/allelectronic/repair-service/internal/middleware"
	"github.com/allelectronic/repair-service/internal/model"
	"github.com/allelectronic/repair-service/internal/repository"
)

// UserHandler serves admin-only staff account management. Role gating
// happens in the router; every handler here can assume an admin caller.
type UserHandler struct {
	Accounts AccountStore
}

func NewUserHandler(accounts AccountStore) *UserHandler {
	return &UserHandler{Accounts: accounts}
}

type userPart struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

func toUserPart(a model.Account) userPart {
	return userPart{
		ID:           a.ID,
		Username:     a.Username,
		Role:         a.Role,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		LastModified: a.LastModified,
	}
}

// List returns every account, password hashes excluded.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accounts, err := h.Accounts.List(ctx)
	if err != nil {
		return storeError(c, err, "Failed to read users")
	}
	users := make([]userPart, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, toUserPart(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "users": users})
}

type createUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create adds a staff account. An omitted or unknown role defaults to the
// least-privileged role.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "invalid body",
		})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "Username and password are required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.Create(ctx, req.Username, req.Password, req.Role)
	if errors.Is(err, repository.ErrUsernameExists) {
		return c.JSON(http.StatusConflict, echo.Map{
			"status": "error", "message": "Username already exists",
		})
	}
	if err != nil {
		return storeError(c, err, "Server error")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status":  "success",
		"message": "User created successfully",
		"user":    toUserPart(acc),
	})
}

type updateUserReq struct {
	UserID      string `json:"userId"`
	NewPassword string `json:"newPassword"`
	NewRole     string `json:"newRole"`
}

// Update changes a user's password and/or role. At least one field must be
// supplied. Role changes take effect when the user next logs in; tokens
// already issued keep their embedded role until expiry.
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "invalid body",
		})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "User ID is required",
		})
	}
	if req.NewPassword == "" && req.NewRole == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "Either newPassword or newRole must be provided",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.Update(ctx, req.UserID, req.NewPassword, req.NewRole); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"status": "error", "message": "User not found",
			})
		}
		return storeError(c, err, "Server error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "User updated successfully",
		"updated": echo.Map{
			"password": req.NewPassword != "",
			"role":     model.ValidRole(req.NewRole),
		},
	})
}

type deleteUserReq struct {
	UserID string `json:"userId"`
}

// Delete removes a staff account. Deleting your own account is rejected.
func (h *UserHandler) Delete(c echo.Context) error {
	var req deleteUserReq
	if err := c.Bind(&req); err != nil || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "User ID is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Accounts.Delete(ctx, req.UserID, middleware.Username(c))
	if errors.Is(err, repository.ErrSelfDelete) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "Cannot delete your own account",
		})
	}
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status": "error", "message": "User not found",
		})
	}
	if err != nil {
		return storeError(c, err, "Server error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": `User "` + deleted.Username + `" deleted successfully`,
	})
}
