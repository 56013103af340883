// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Event actions recorded in the audit trail.
const (
	EventCreated     = "message.created"
	EventUpdated     = "message.updated"
	EventDeleted     = "message.deleted"
	EventDeactivated = "message.deactivated"
)

// MessageEvent is a lifecycle event published to the organization's queue
// after a successful mutation and persisted by the worker pool.
type MessageEvent struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	MessageID      uuid.UUID `db:"message_id" json:"message_id"`
	Action         string    `db:"action" json:"action"`
	Title          string    `db:"title" json:"title"`
	OccurredAt     time.Time `db:"occurred_at" json:"occurred_at"`
}
