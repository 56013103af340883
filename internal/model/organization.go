// internal/model/organization.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Concurrency int       `db:"concurrency" json:"concurrency"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
