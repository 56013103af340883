package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"org-messaging/internal/model"
)

func testMessage(orgID uuid.UUID, title string) *model.Message {
	now := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	return &model.Message{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          title,
		Content:        "content long enough",
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestMemoryInsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	orgID := uuid.New()
	msg := testMessage(orgID, "Hello")

	require.NoError(t, store.Insert(ctx, msg))

	got, err := store.GetByID(ctx, orgID, msg.ID)
	require.NoError(t, err)
	require.Equal(t, msg, got)

	// Clones, not aliases
	got.Title = "mutated"
	again, err := store.GetByID(ctx, orgID, msg.ID)
	require.NoError(t, err)
	require.Equal(t, "Hello", again.Title)
}

func TestMemoryInsertDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	msg := testMessage(uuid.New(), "Original")

	require.NoError(t, store.Insert(ctx, msg))

	dup := *msg
	dup.Title = "Different title"
	require.ErrorIs(t, store.Insert(ctx, &dup), ErrDuplicateID)
}

func TestMemoryInsertDuplicateActiveTitle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	orgID := uuid.New()

	require.NoError(t, store.Insert(ctx, testMessage(orgID, "Unique")))
	require.ErrorIs(t, store.Insert(ctx, testMessage(orgID, "Unique")), ErrDuplicateTitle)

	// Inactive rows do not hold the title
	inactive := testMessage(orgID, "Parked")
	inactive.IsActive = false
	require.NoError(t, store.Insert(ctx, inactive))
	require.NoError(t, store.Insert(ctx, testMessage(orgID, "Parked")))

	// Other organizations are unaffected
	require.NoError(t, store.Insert(ctx, testMessage(uuid.New(), "Unique")))
}

func TestMemoryFindActiveByTitle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	orgID := uuid.New()
	msg := testMessage(orgID, "Findable")
	require.NoError(t, store.Insert(ctx, msg))

	got, err := store.FindActiveByTitle(ctx, orgID, "Findable")
	require.NoError(t, err)
	require.Equal(t, msg.ID, got.ID)

	// Case-sensitive comparison
	got, err = store.FindActiveByTitle(ctx, orgID, "findable")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = store.FindActiveByTitle(ctx, uuid.New(), "Findable")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemoryUpdateVanishedRow(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	msg := testMessage(uuid.New(), "Ghost")

	got, err := store.Update(ctx, msg)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemoryUpdateRenameOntoActiveTitle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	orgID := uuid.New()

	require.NoError(t, store.Insert(ctx, testMessage(orgID, "Taken")))
	msg := testMessage(orgID, "Mine")
	require.NoError(t, store.Insert(ctx, msg))

	msg.Title = "Taken"
	_, err := store.Update(ctx, msg)
	require.ErrorIs(t, err, ErrDuplicateTitle)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	orgID := uuid.New()
	msg := testMessage(orgID, "Removable")
	require.NoError(t, store.Insert(ctx, msg))

	removed, err := store.Delete(ctx, orgID, msg.ID)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = store.Delete(ctx, orgID, msg.ID)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestMemoryListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	orgID := uuid.New()

	base := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		msg := testMessage(orgID, title)
		msg.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Insert(ctx, msg))
	}

	messages, err := store.ListByOrganization(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, "first", messages[0].Title)
	require.Equal(t, "second", messages[1].Title)
	require.Equal(t, "third", messages[2].Title)

	empty, err := store.ListByOrganization(ctx, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestMemoryEvents(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	orgID := uuid.New()

	e := &model.MessageEvent{
		ID:             uuid.New(),
		OrganizationID: orgID,
		MessageID:      uuid.New(),
		Action:         model.EventCreated,
		Title:          "Audited",
		OccurredAt:     time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.InsertEvent(ctx, e))

	events, err := store.ListEventsByOrganization(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, *e, events[0])

	other, err := store.ListEventsByOrganization(ctx, uuid.New())
	require.NoError(t, err)
	require.Empty(t, other)
}
