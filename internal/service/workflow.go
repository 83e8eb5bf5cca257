package service

import (
	"errors"

	"github.com/allelectronic/repair-service/internal/model"
)

// ErrIllegalTransition is returned in strict mode when a status change is
// not an edge of the transition graph.
var ErrIllegalTransition = errors.New("illegal status transition")

// DefaultTransitions is the canonical lifecycle: pending → in-progress →
// completed, with cancelled reachable from pending or in-progress.
var DefaultTransitions = map[string][]string{
	model.StatusPending:    {model.StatusInProgress, model.StatusCancelled},
	model.StatusInProgress: {model.StatusCompleted, model.StatusCancelled},
	model.StatusCompleted:  {},
	model.StatusCancelled:  {},
}

// Workflow validates and applies status/payment changes. The transition
// graph is plain data so deployments can swap it out. In lenient mode (the
// default, matching how the back office has always behaved) any known status
// value is accepted as a direct overwrite, which admins use for manual
// corrections; strict mode enforces the graph. Payment free-ranges over its
// enumeration in both modes, and unknown values on either axis are silently
// dropped rather than rejected.
type Workflow struct {
	Strict      bool
	Transitions map[string][]string
}

// NewWorkflow returns a Workflow over DefaultTransitions.
func NewWorkflow(strict bool) *Workflow {
	return &Workflow{Strict: strict, Transitions: DefaultTransitions}
}

// Apply computes the set of fields a status update writes. current is the
// record's present status, status/payment the requested values ("" for
// untouched axes). The returned map may be empty; the repository still
// refreshes updatedAt on every update.
func (w *Workflow) Apply(current, status, payment string) (map[string]any, error) {
	set := map[string]any{}
	if model.ValidStatus(status) {
		if w.Strict && status != current && !w.allowed(current, status) {
			return nil, ErrIllegalTransition
		}
		set["status"] = status
	}
	if model.ValidPayment(payment) {
		set["payment"] = payment
	}
	return set, nil
}

func (w *Workflow) allowed(from, to string) bool {
	for _, next := range w.Transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
