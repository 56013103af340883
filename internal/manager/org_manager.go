// internal/manager/org_manager.go
package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"org-messaging/internal/consumer"
	"org-messaging/internal/events"
	"org-messaging/internal/model"
	"org-messaging/internal/storage"
	"org-messaging/internal/worker"
)

// OrgManager provisions and tears down per-organization infrastructure:
// the messages partition, the event queue, and the consumer + worker pool
// recording the audit trail.
type OrgManager struct {
	rabbitConn *amqp.Connection
	rabbit     *events.RabbitClient
	storage    *storage.Storage

	mu        sync.RWMutex
	consumers map[uuid.UUID]*consumer.Consumer
}

func NewOrgManager(
	rabbitConn *amqp.Connection,
	rabbit *events.RabbitClient,
	storage *storage.Storage,
) *OrgManager {
	return &OrgManager{
		rabbitConn: rabbitConn,
		rabbit:     rabbit,
		storage:    storage,
		consumers:  make(map[uuid.UUID]*consumer.Consumer),
	}
}

// AddOrganization creates the partition and the event queue, spawns the
// consumer + worker pool, and persists the organization row
func (m *OrgManager) AddOrganization(orgID uuid.UUID, name string, workers int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.consumers[orgID]; exists {
		return nil // already provisioned
	}

	// Create DB partition
	if err := m.storage.EnsurePartition(orgID); err != nil {
		return err
	}

	// Declare RabbitMQ queues
	if err := m.rabbit.DeclareQueue(orgID.String()); err != nil {
		return err
	}

	// Start worker pool + consumer
	pool := worker.NewPool(orgID.String(), workers, m.handleEvent)
	pool.Start()

	c, err := consumer.StartConsumer(m.rabbitConn, orgID.String(), pool)
	if err != nil {
		pool.Stop()
		return err
	}
	m.consumers[orgID] = c

	org := &model.Organization{ID: orgID, Name: name, Concurrency: workers}
	if err := m.storage.CreateOrganization(org); err != nil {
		return fmt.Errorf("failed to save organization: %w", err)
	}

	log.Info().Str("organization_id", orgID.String()).Msg("organization provisioned")
	return nil
}

// RemoveOrganization stops the consumer, deletes the queue, and removes
// the stored row
func (m *OrgManager) RemoveOrganization(orgID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, exists := m.consumers[orgID]
	if !exists {
		return nil // nothing to remove
	}

	c.Stop()

	queueName := events.QueueName(orgID.String())
	_, err := m.rabbit.GetChannel().QueueDelete(queueName, false, false, false)
	if err != nil {
		log.Warn().Err(err).Str("queue", queueName).Msg("failed to delete queue")
	}

	delete(m.consumers, orgID)

	if err := m.storage.DeleteOrganization(orgID); err != nil {
		log.Warn().Err(err).Str("organization_id", orgID.String()).Msg("failed to remove organization record")
	}

	log.Info().Str("organization_id", orgID.String()).Msg("organization removed")
	return nil
}

// ShutdownAll stops every consumer
func (m *OrgManager) ShutdownAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.consumers {
		c.Stop()
		log.Info().Str("organization_id", id.String()).Msg("stopped organization")
	}
	m.consumers = make(map[uuid.UUID]*consumer.Consumer)
}

// handleEvent records a lifecycle event in the audit table (callback run
// by the worker pool)
func (m *OrgManager) handleEvent(orgID string, msg amqp.Delivery) error {
	var e model.MessageEvent
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("failed to parse event: %w", err)
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	if err := m.storage.InsertEvent(context.Background(), &e); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	log.Debug().
		Str("organization_id", orgID).
		Str("message_id", e.MessageID.String()).
		Str("action", e.Action).
		Msg("recorded lifecycle event")
	return nil
}

// ListOrganizationIDs returns all currently provisioned organization UUIDs
func (m *OrgManager) ListOrganizationIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.consumers))
	for id := range m.consumers {
		ids = append(ids, id.String())
	}
	return ids
}

// SetWorkerCount rescales an organization's worker pool and persists the
// concurrency level
func (m *OrgManager) SetWorkerCount(orgID uuid.UUID, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.consumers[orgID]
	if !ok {
		return fmt.Errorf("organization not found: %s", orgID)
	}

	c.SetWorkerCount(n)

	if err := m.storage.UpdateOrganizationConcurrency(orgID, n); err != nil {
		return fmt.Errorf("failed to persist concurrency: %w", err)
	}
	return nil
}
