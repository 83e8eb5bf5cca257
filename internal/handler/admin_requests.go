package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/allelectronic/repair-service/internal/middleware"
	"github.com/allelectronic/repair-service/internal/queue"
	"github.com/allelectronic/repair-service/internal/repository"
	"github.com/allelectronic/repair-service/internal/service"
)

// AdminRequestHandler serves the back-office request triage endpoints.
type AdminRequestHandler struct {
	Requests RequestStore
	Workflow *service.Workflow
	Events   *service.EventPublisher
}

func NewAdminRequestHandler(requests RequestStore, wf *service.Workflow, events *service.EventPublisher) *AdminRequestHandler {
	return &AdminRequestHandler{Requests: requests, Workflow: wf, Events: events}
}

// PageSize is a page limit that accepts a JSON number, a numeric string, or
// the "all" sentinel which returns every matching record in one page.
type PageSize struct {
	All bool
	N   int64
}

func (p *PageSize) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(str), "all") {
			p.All = true
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64)
		if err != nil {
			return errors.New("limit must be a number or \"all\"")
		}
		p.N = n
		return nil
	}
	return json.Unmarshal(data, &p.N)
}

type listReq struct {
	Page   int64    `json:"page"`
	Limit  PageSize `json:"limit"`
	Search string   `json:"search"`
}

// List returns one page of requests, newest first, with an optional
// case-insensitive substring search over id, name and email.
func (h *AdminRequestHandler) List(c echo.Context) error {
	var req listReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "invalid body",
		})
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if !req.Limit.All && req.Limit.N < 1 {
		req.Limit.N = 50
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Requests.List(ctx, req.Page, req.Limit.N, req.Limit.All, strings.TrimSpace(req.Search))
	if err != nil {
		return storeError(c, err, "Failed to read requests")
	}

	page, limit, pages := req.Page, req.Limit.N, int64(1)
	if req.Limit.All {
		page, limit = 1, total
	} else if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   items,
		"pagination": echo.Map{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
	})
}

type idReq struct {
	ID string `json:"id"`
}

// Get fetches a single request by its external id.
func (h *AdminRequestHandler) Get(c echo.Context) error {
	var req idReq
	if err := c.Bind(&req); err != nil || req.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "Missing id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	found, err := h.Requests.FindByID(ctx, req.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status": "error", "message": "Request not found",
		})
	}
	if err != nil {
		return storeError(c, err, "Server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": found})
}

type updateStatusReq struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Payment string `json:"payment"`
}

// UpdateStatus applies a status and/or payment change through the workflow.
// Values outside the defined enumerations are silently ignored; updatedAt is
// refreshed on every successful update either way.
func (h *AdminRequestHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "invalid body",
		})
	}
	if req.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "Missing id",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Requests.FindByID(ctx, req.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status": "error", "message": "Request not found",
		})
	}
	if err != nil {
		return storeError(c, err, "Server error")
	}

	set, err := h.Workflow.Apply(current.Status, req.Status, req.Payment)
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{
			"status":  "error",
			"message": "Illegal status transition: " + current.Status + " -> " + req.Status,
		})
	}

	updated, err := h.Requests.ApplyUpdate(ctx, req.ID, set)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status": "error", "message": "Request not found",
		})
	}
	if err != nil {
		return storeError(c, err, "Server error")
	}

	_ = h.Events.Publish(ctx, queue.RequestEvent{
		Type:       queue.EventStatusChanged,
		RequestID:  updated.ID,
		Status:     updated.Status,
		Payment:    updated.Payment,
		Actor:      middleware.Username(c),
		OccurredAt: updated.UpdatedAt.Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": updated})
}

type deleteReq struct {
	IDs []string `json:"ids"`
}

// Delete bulk-removes requests by id. Only admins reach this handler; the
// route is behind RequireRole. Missing ids are not counted and do not fail
// the operation.
func (h *AdminRequestHandler) Delete(c echo.Context) error {
	var req deleteReq
	if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "No IDs provided",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	count, err := h.Requests.DeleteMany(ctx, req.IDs)
	if err != nil {
		return storeError(c, err, "Server error")
	}

	_ = h.Events.Publish(ctx, queue.RequestEvent{
		Type:       queue.EventRequestsDeleted,
		RequestIDs: req.IDs,
		Actor:      middleware.Username(c),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"status":       "success",
		"message":      "Deleted " + strconv.FormatInt(count, 10) + " request(s)",
		"deletedCount": count,
	})
}

// storeError maps backing-store failures onto the error envelope. A missing
// or unreachable store is reported clearly rather than masked as a generic
// failure.
func storeError(c echo.Context, err error, msg string) error {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status": "error", "message": "Database not configured or unavailable",
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"status": "error", "message": msg,
	})
}
