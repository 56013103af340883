// internal/model/message.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is the persisted entity. Title is unique among active messages
// within one organization; the comparison is case-sensitive.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Title          string    `db:"title" json:"title"`
	Content        string    `db:"content" json:"content"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
