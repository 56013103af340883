// internal/storage/memory.go
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"org-messaging/internal/model"
)

type orgKey struct {
	org uuid.UUID
	id  uuid.UUID
}

// Memory is a mutex-guarded MessageStore for tests and local runs. It
// enforces the same active-title uniqueness as the postgres index, inside
// its lock, so the check-then-insert race resolves the same way.
type Memory struct {
	mu       sync.RWMutex
	messages map[orgKey]*model.Message
	events   []model.MessageEvent
}

func NewMemory() *Memory {
	return &Memory{
		messages: make(map[orgKey]*model.Message),
	}
}

func (m *Memory) FindActiveByTitle(_ context.Context, orgID uuid.UUID, title string) (*model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.findActiveByTitleLocked(orgID, title), nil
}

func (m *Memory) findActiveByTitleLocked(orgID uuid.UUID, title string) *model.Message {
	for k, msg := range m.messages {
		if k.org == orgID && msg.IsActive && msg.Title == title {
			clone := *msg
			return &clone
		}
	}
	return nil
}

func (m *Memory) GetByID(_ context.Context, orgID uuid.UUID, id uuid.UUID) (*model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msg, ok := m.messages[orgKey{org: orgID, id: id}]
	if !ok {
		return nil, nil
	}
	clone := *msg
	return &clone, nil
}

func (m *Memory) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Message, 0)
	for k, msg := range m.messages {
		if k.org == orgID {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *Memory) Insert(_ context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := orgKey{org: msg.OrganizationID, id: msg.ID}
	if _, exists := m.messages[key]; exists {
		return ErrDuplicateID
	}
	if msg.IsActive {
		if dup := m.findActiveByTitleLocked(msg.OrganizationID, msg.Title); dup != nil {
			return ErrDuplicateTitle
		}
	}

	clone := *msg
	m.messages[key] = &clone
	return nil
}

func (m *Memory) Update(_ context.Context, msg *model.Message) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := orgKey{org: msg.OrganizationID, id: msg.ID}
	stored, ok := m.messages[key]
	if !ok {
		return nil, nil
	}
	if msg.IsActive {
		if dup := m.findActiveByTitleLocked(msg.OrganizationID, msg.Title); dup != nil && dup.ID != msg.ID {
			return nil, ErrDuplicateTitle
		}
	}

	stored.Title = msg.Title
	stored.Content = msg.Content
	stored.IsActive = msg.IsActive
	stored.UpdatedAt = msg.UpdatedAt

	clone := *stored
	return &clone, nil
}

func (m *Memory) Delete(_ context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := orgKey{org: orgID, id: id}
	if _, ok := m.messages[key]; !ok {
		return false, nil
	}
	delete(m.messages, key)
	return true, nil
}

// Remove deletes a row without going through the delete contract. Test
// hook for simulating a record vanishing between lookup and write.
func (m *Memory) Remove(orgID uuid.UUID, id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, orgKey{org: orgID, id: id})
}

func (m *Memory) InsertEvent(_ context.Context, e *model.MessageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *Memory) ListEventsByOrganization(_ context.Context, orgID uuid.UUID) ([]model.MessageEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.MessageEvent, 0)
	for _, e := range m.events {
		if e.OrganizationID == orgID {
			out = append(out, e)
		}
	}
	return out, nil
}
