package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Repair request lifecycle states. Status and payment are independent axes;
// neither implies the other.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	PaymentPending    = "payment-pending"
	PaymentProcessing = "processing"
	PaymentPaid       = "paid"
)

// RepairRequest is a single intake record. ID is the externally visible key
// and is immutable once created; the Mongo _id stays internal.
type RepairRequest struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Email       string    `bson:"email" json:"email"`
	Phone       string    `bson:"phone" json:"phone"` // digits only
	Product     string    `bson:"product" json:"product"`
	Issue       string    `bson:"issue" json:"issue"`
	ServiceType string    `bson:"serviceType,omitempty" json:"serviceType,omitempty"`
	Status      string    `bson:"status" json:"status"`
	Payment     string    `bson:"payment" json:"payment"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ValidStatus reports whether s is one of the defined status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidPayment reports whether s is one of the defined payment values.
func ValidPayment(s string) bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentPaid:
		return true
	}
	return false
}

// TerminalStatus reports whether s is a terminal state. Terminal requests
// are excluded from duplicate matching.
func TerminalStatus(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Submission carries the fields a customer posts through the intake form.
// ForceDuplicate bypasses duplicate detection for this one submission.
type Submission struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Product        string `json:"product"`
	Issue          string `json:"issue"`
	ServiceType    string `json:"serviceType"`
	ForceDuplicate bool   `json:"forceDuplicate"`
}

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// DigitsOnly strips every non-digit rune from a phone number.
func DigitsOnly(phone string) string {
	return nonDigitRe.ReplaceAllString(phone, "")
}

// Validate checks the submission and returns a map keyed by field name with a
// human-readable message per violation. An empty map means the submission is
// acceptable.
func (s Submission) Validate() map[string]string {
	errs := make(map[string]string)
	if len(strings.TrimSpace(s.Name)) < 2 {
		errs["name"] = "Name required (2+ chars)"
	}
	if !emailRe.MatchString(strings.TrimSpace(s.Email)) {
		errs["email"] = "Valid email required"
	}
	if len(DigitsOnly(s.Phone)) < 10 {
		errs["phone"] = "Valid phone number required (10+ digits)"
	}
	if len(strings.TrimSpace(s.Product)) < 3 {
		errs["product"] = "Product required (3+ chars)"
	}
	if len(strings.TrimSpace(s.Issue)) < 10 {
		errs["issue"] = "Issue description required (10+ chars)"
	}
	return errs
}

// NewRequest builds a RepairRequest from a validated submission: fields are
// trimmed, the phone reduced to digits, and status/payment set to their
// initial values.
func NewRequest(s Submission) RepairRequest {
	now := time.Now().UTC()
	return RepairRequest{
		ID:          NewRequestID(),
		Name:        strings.TrimSpace(s.Name),
		Email:       strings.TrimSpace(s.Email),
		Phone:       DigitsOnly(s.Phone),
		Product:     strings.TrimSpace(s.Product),
		Issue:       strings.TrimSpace(s.Issue),
		ServiceType: strings.TrimSpace(s.ServiceType),
		Status:      StatusPending,
		Payment:     PaymentPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewRequestID generates an externally visible request id. The millisecond
// timestamp keeps ids roughly ordered for traceability; the random suffix
// keeps concurrent submissions from colliding.
func NewRequestID() string {
	buf := make([]byte, 2)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("REP-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
