package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/allelectronic/repair-service/internal/model"
	"github.com/allelectronic/repair-service/internal/queue"
	"github.com/allelectronic/repair-service/internal/repository"
	"github.com/allelectronic/repair-service/internal/service"
)

// RequestStore is the slice of the request repository the handlers need.
type RequestStore interface {
	Create(ctx context.Context, req *model.RepairRequest) error
	FindByID(ctx context.Context, id string) (model.RepairRequest, error)
	List(ctx context.Context, page, limit int64, all bool, search string) ([]model.RepairRequest, int64, error)
	ApplyUpdate(ctx context.Context, id string, set map[string]any) (model.RepairRequest, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// DuplicateChecker is satisfied by service.DuplicateDetector.
type DuplicateChecker interface {
	Check(ctx context.Context, name, phone, email, product string) (*service.DuplicateMatch, error)
}

// IntakeHandler serves the public repair-request form.
type IntakeHandler struct {
	Requests   RequestStore
	Duplicates DuplicateChecker
	Events     *service.EventPublisher
}

func NewIntakeHandler(requests RequestStore, dup DuplicateChecker, events *service.EventPublisher) *IntakeHandler {
	return &IntakeHandler{Requests: requests, Duplicates: dup, Events: events}
}

// Submit accepts a repair request. Flow: validate fields, run the advisory
// duplicate check unless the caller set forceDuplicate, then persist. When
// the store is down the submission is still acknowledged, with
// persisted:false so nothing is lost silently.
func (h *IntakeHandler) Submit(c echo.Context) error {
	var sub model.Submission
	if err := c.Bind(&sub); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "invalid body",
		})
	}

	if errs := sub.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "error", "message": "Validation failed", "errors": errs,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !sub.ForceDuplicate && h.Duplicates != nil {
		match, err := h.Duplicates.Check(ctx, sub.Name, sub.Phone, sub.Email, sub.Product)
		if err != nil && !errors.Is(err, repository.ErrStoreUnavailable) {
			// Advisory check only; a lookup failure must not block intake.
			log.Printf("intake: duplicate check failed: %v", err)
		}
		if match != nil {
			return c.JSON(http.StatusConflict, echo.Map{
				"status":    "error",
				"message":   "Duplicate repair request detected",
				"duplicate": match,
			})
		}
	}

	req := model.NewRequest(sub)
	err := h.Requests.Create(ctx, &req)
	if errors.Is(err, repository.ErrStoreUnavailable) {
		log.Printf("intake: store unavailable, acknowledged %s without persistence", req.ID)
		return c.JSON(http.StatusCreated, echo.Map{
			"status":       "success",
			"message":      "Repair request received (not persisted)",
			"submissionId": req.ID,
			"persisted":    false,
		})
	}
	if err != nil {
		log.Printf("intake: save failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status": "error", "message": "Server error",
		})
	}

	_ = h.Events.Publish(ctx, queue.RequestEvent{
		Type:       queue.EventRequestCreated,
		RequestID:  req.ID,
		Status:     req.Status,
		Actor:      "public",
		OccurredAt: req.CreatedAt.Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"status":       "success",
		"message":      "Repair request saved",
		"submissionId": req.ID,
		"persisted":    true,
	})
}
