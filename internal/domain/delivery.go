package domain

import (
	"context"
	"fmt"
)

// EventKind identifies an outbound notification event.
type EventKind string

const (
	EventNewJob   EventKind = "NEW_JOB"  // to eligible workers on broadcast
	EventNewBid   EventKind = "NEW_BID"  // to the requester on a recorded bid
	EventChosen   EventKind = "CHOSEN"   // to the winning worker
	EventAssigned EventKind = "ASSIGNED" // to the requester on commit
)

// RecipientRole distinguishes the two collaborator sides.
type RecipientRole string

const (
	RoleWorker    RecipientRole = "worker"
	RoleRequester RecipientRole = "requester"
)

// Notification is one outbound message to a remote collaborator.
type Notification struct {
	RecipientID string            `json:"recipient_id"`
	Role        RecipientRole     `json:"role"`
	JobID       string            `json:"job_id"`
	Event       EventKind         `json:"event"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// IdempotencyKey derives a stable key so retried deliveries of the same
// logical event are recognizably the same event on the receiving side. The
// recipient id is part of the key: a broadcast sends the same event kind to
// many workers and each delivery must dedupe independently.
func (n Notification) IdempotencyKey() string {
	return fmt.Sprintf("%s:%s:%s:%s", n.JobID, n.Role, n.Event, n.RecipientID)
}

// Deliverer gets a notification to the gateway, with retry and idempotency.
// A returned error means the recipient could not be reached within the retry
// budget; it never implies state rollback on the sending side.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// DeliveryLedger records idempotency keys acknowledged by the gateway so a
// retried fan-out can skip recipients that were already reached.
type DeliveryLedger interface {
	// MarkDelivered records the key. Returns false when it was already
	// recorded.
	MarkDelivered(ctx context.Context, key string) (bool, error)

	// Delivered reports whether the key was recorded.
	Delivered(ctx context.Context, key string) (bool, error)
}
