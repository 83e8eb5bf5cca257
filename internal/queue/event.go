// Package queue defines the payloads exchanged over the message broker and
// the background consumer that turns them into an audit trail.
package queue

// EventsQueue is the durable queue all repair domain events flow through.
const EventsQueue = "repair.events"

// Event types.
const (
	EventRequestCreated  = "request.created"
	EventStatusChanged   = "request.status_changed"
	EventRequestsDeleted = "requests.deleted"
)

// RequestEvent is published when a repair request is created, its state
// changes, or records are bulk-deleted. It carries enough for downstream
// consumers to audit or notify without querying the primary store.
// Notification delivery itself lives outside this service.
type RequestEvent struct {
	Type       string   `json:"type"`
	RequestID  string   `json:"request_id,omitempty"`
	RequestIDs []string `json:"request_ids,omitempty"`
	Status     string   `json:"status,omitempty"`
	Payment    string   `json:"payment,omitempty"`
	Actor      string   `json:"actor"`
	OccurredAt string   `json:"occurred_at"`
}
