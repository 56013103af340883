// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"org-messaging/internal/model"
)

var (
	// ErrDuplicateID is returned by Insert when the identifier is already taken.
	ErrDuplicateID = errors.New("storage: message id already exists")

	// ErrDuplicateTitle is returned by Insert or Update when another active
	// message in the same organization already holds the title. The store is
	// the final authority on title uniqueness; the logic layer's read-before-
	// write check only produces a friendlier outcome for the common case.
	ErrDuplicateTitle = errors.New("storage: active title already exists in organization")
)

// MessageStore is the narrow persistence contract consumed by the logic
// layer. Absent records are signalled with (nil, nil), not an error.
type MessageStore interface {
	// FindActiveByTitle returns the active message holding title within the
	// organization, or nil when there is none.
	FindActiveByTitle(ctx context.Context, orgID uuid.UUID, title string) (*model.Message, error)

	// GetByID returns the message keyed by (organization, id), or nil.
	GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*model.Message, error)

	// ListByOrganization returns every message for the organization, ordered
	// by creation time then id. Empty slice, never nil, when there are none.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Message, error)

	// Insert persists a fully populated message.
	Insert(ctx context.Context, m *model.Message) error

	// Update persists title/content/is_active/updated_at and returns the
	// stored row. nil means the record vanished between lookup and write.
	Update(ctx context.Context, m *model.Message) (*model.Message, error)

	// Delete removes the message. false means nothing was removed.
	Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error)
}
