// Package service holds the domain rules that sit between transport and
// storage: duplicate detection, the status workflow, and event publishing.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/allelectronic/repair-service/internal/model"
)

// OpenRequestFinder is the slice of the request repository the detector
// needs: find a non-terminal request for the same customer and product.
type OpenRequestFinder interface {
	FindOpenMatch(ctx context.Context, name, phone, email, product string) (*model.RepairRequest, error)
}

// DuplicateMatch describes the existing request a new submission collides
// with. It carries enough for the caller to present a confirmation choice.
type DuplicateMatch struct {
	ID        string    `json:"id"`
	Product   string    `json:"product"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// DuplicateDetector runs the advisory pre-submission check. It is a
// point-in-time read with no locking: two concurrent submissions for the
// same customer and product can both pass and both be created. The business
// rule tolerates that; a caller can always force-submit anyway.
type DuplicateDetector struct {
	Finder OpenRequestFinder
}

func NewDuplicateDetector(f OpenRequestFinder) *DuplicateDetector {
	return &DuplicateDetector{Finder: f}
}

// Check normalizes the candidate's identifying fields and reports the most
// recent open request for the same customer (name+phone or email) and the
// same product, or nil when there is none.
func (d *DuplicateDetector) Check(ctx context.Context, name, phone, email, product string) (*DuplicateMatch, error) {
	name = strings.TrimSpace(name)
	phone = model.DigitsOnly(phone)
	email = strings.TrimSpace(email)
	product = strings.TrimSpace(product)

	found, err := d.Finder.FindOpenMatch(ctx, name, phone, email, product)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, nil
	}
	return &DuplicateMatch{
		ID:        found.ID,
		Product:   found.Product,
		Status:    found.Status,
		CreatedAt: found.CreatedAt,
	}, nil
}
