// internal/logic/messages.go
package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"org-messaging/internal/model"
	"org-messaging/internal/storage"
)

// Clock supplies timestamps for created_at/updated_at. Injected so tests
// can pin time.
type Clock func() time.Time

// Publisher emits lifecycle events after successful mutations. Publish
// failures never fail the operation.
type Publisher interface {
	PublishEvent(orgID uuid.UUID, e model.MessageEvent) error
}

type CreateMessageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateMessageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// MessageLogic holds the business rules for organization-scoped messages.
// Stateless and reentrant; everything shared lives behind the store.
type MessageLogic struct {
	store  storage.MessageStore
	events Publisher
	now    Clock
}

// NewMessageLogic wires the logic layer. events may be nil; now defaults
// to time.Now.
func NewMessageLogic(store storage.MessageStore, events Publisher, now Clock) *MessageLogic {
	if now == nil {
		now = time.Now
	}
	return &MessageLogic{store: store, events: events, now: now}
}

// Create validates the request, rejects duplicate active titles within the
// organization, and persists a fresh message.
func (l *MessageLogic) Create(ctx context.Context, orgID uuid.UUID, req *CreateMessageRequest) (Result, error) {
	if req == nil {
		return invalid(FieldError{Field: "request", Message: "request body is required"}), nil
	}

	title := strings.TrimSpace(req.Title)
	if fields := validateFields(title, req.Content); len(fields) > 0 {
		return invalid(fields...), nil
	}

	existing, err := l.store.FindActiveByTitle(ctx, orgID, title)
	if err != nil {
		return Result{}, fmt.Errorf("title lookup failed: %w", err)
	}
	if existing != nil {
		return conflict("title already exists for this organization"), nil
	}

	now := l.now().UTC()
	msg := &model.Message{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          title,
		Content:        req.Content,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The pre-check above is not atomic with the insert; the store's
	// uniqueness constraint settles concurrent creates.
	if err := l.store.Insert(ctx, msg); err != nil {
		if errors.Is(err, storage.ErrDuplicateTitle) {
			return conflict("title already exists for this organization"), nil
		}
		return Result{}, fmt.Errorf("insert failed: %w", err)
	}

	l.publish(orgID, msg, model.EventCreated)
	return ok(msg), nil
}

// Update applies new title/content to an active message. Renaming onto
// another message's active title is a conflict; keeping one's own title
// is allowed.
func (l *MessageLogic) Update(ctx context.Context, orgID uuid.UUID, id uuid.UUID, req *UpdateMessageRequest) (Result, error) {
	if req == nil {
		return invalid(FieldError{Field: "request", Message: "request body is required"}), nil
	}

	stored, err := l.store.GetByID(ctx, orgID, id)
	if err != nil {
		return Result{}, fmt.Errorf("lookup failed: %w", err)
	}
	if stored == nil {
		return notFound("message not found"), nil
	}
	if !stored.IsActive {
		return invalid(FieldError{Field: "is_active", Message: "cannot update an inactive message"}), nil
	}

	title := strings.TrimSpace(req.Title)
	if fields := validateFields(title, req.Content); len(fields) > 0 {
		return invalid(fields...), nil
	}

	dup, err := l.store.FindActiveByTitle(ctx, orgID, title)
	if err != nil {
		return Result{}, fmt.Errorf("title lookup failed: %w", err)
	}
	if dup != nil && dup.ID != id {
		return conflict("title already exists for this organization"), nil
	}

	stored.Title = title
	stored.Content = req.Content
	stored.UpdatedAt = l.now().UTC()

	updated, err := l.store.Update(ctx, stored)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateTitle) {
			return conflict("title already exists for this organization"), nil
		}
		return Result{}, fmt.Errorf("update failed: %w", err)
	}
	if updated == nil {
		// Row vanished between lookup and write.
		return notFound("message not found"), nil
	}

	l.publish(orgID, updated, model.EventUpdated)
	return Result{Status: StatusOK}, nil
}

// Delete removes an active message for good. Inactive messages are frozen
// and cannot be deleted.
func (l *MessageLogic) Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (Result, error) {
	stored, err := l.store.GetByID(ctx, orgID, id)
	if err != nil {
		return Result{}, fmt.Errorf("lookup failed: %w", err)
	}
	if stored == nil {
		return notFound("message not found"), nil
	}
	if !stored.IsActive {
		return invalid(FieldError{Field: "is_active", Message: "cannot delete an inactive message"}), nil
	}

	removed, err := l.store.Delete(ctx, orgID, id)
	if err != nil {
		return Result{}, fmt.Errorf("delete failed: %w", err)
	}
	if !removed {
		return notFound("message not found"), nil
	}

	l.publish(orgID, stored, model.EventDeleted)
	return Result{Status: StatusOK}, nil
}

// Deactivate flips is_active to false. Terminal: there is no reactivate.
func (l *MessageLogic) Deactivate(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (Result, error) {
	stored, err := l.store.GetByID(ctx, orgID, id)
	if err != nil {
		return Result{}, fmt.Errorf("lookup failed: %w", err)
	}
	if stored == nil {
		return notFound("message not found"), nil
	}
	if !stored.IsActive {
		return invalid(FieldError{Field: "is_active", Message: "message is already inactive"}), nil
	}

	stored.IsActive = false
	stored.UpdatedAt = l.now().UTC()

	updated, err := l.store.Update(ctx, stored)
	if err != nil {
		return Result{}, fmt.Errorf("update failed: %w", err)
	}
	if updated == nil {
		return notFound("message not found"), nil
	}

	l.publish(orgID, updated, model.EventDeactivated)
	return Result{Status: StatusOK}, nil
}

// Get returns the message keyed by (organization, id).
func (l *MessageLogic) Get(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (Result, error) {
	stored, err := l.store.GetByID(ctx, orgID, id)
	if err != nil {
		return Result{}, fmt.Errorf("lookup failed: %w", err)
	}
	if stored == nil {
		return notFound("message not found"), nil
	}
	return ok(stored), nil
}

// List returns every message for the organization. Empty slice, never nil.
func (l *MessageLogic) List(ctx context.Context, orgID uuid.UUID) ([]model.Message, error) {
	messages, err := l.store.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}
	if messages == nil {
		messages = make([]model.Message, 0)
	}
	return messages, nil
}

func (l *MessageLogic) publish(orgID uuid.UUID, msg *model.Message, action string) {
	if l.events == nil {
		return
	}
	e := model.MessageEvent{
		ID:             uuid.New(),
		OrganizationID: orgID,
		MessageID:      msg.ID,
		Action:         action,
		Title:          msg.Title,
		OccurredAt:     l.now().UTC(),
	}
	if err := l.events.PublishEvent(orgID, e); err != nil {
		log.Warn().Err(err).
			Str("organization_id", orgID.String()).
			Str("message_id", msg.ID.String()).
			Str("action", action).
			Msg("failed to publish lifecycle event")
	}
}
