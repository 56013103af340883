// internal/events/rabbit.go
package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"org-messaging/internal/metrics"
	"org-messaging/internal/model"
)

// QueueName returns the durable event queue for an organization.
func QueueName(orgID string) string {
	return fmt.Sprintf("org_%s_events", orgID)
}

func dlqName(orgID string) string {
	return fmt.Sprintf("org_%s_dlq", orgID)
}

type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	URL     string
}

func NewRabbitClient(url string) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return &RabbitClient{
		conn:    conn,
		channel: ch,
		URL:     url,
	}, nil
}

func (r *RabbitClient) GetChannel() *amqp.Channel {
	return r.channel
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

// DeclareQueue creates the organization's durable event queue and its DLQ
func (r *RabbitClient) DeclareQueue(orgID string) error {
	// 1. DLQ
	_, err := r.channel.QueueDeclare(
		dlqName(orgID),
		true, false, false, false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	// 2. Main Queue with DLQ binding
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqName(orgID),
	}
	_, err = r.channel.QueueDeclare(
		QueueName(orgID),
		true, false, false, false,
		args,
	)
	if err != nil {
		return fmt.Errorf("declare main queue: %w", err)
	}

	log.Debug().Str("organization_id", orgID).Msg("event queues declared")
	return nil
}

// PublishEvent sends a lifecycle event to the organization's event queue.
// Satisfies the logic layer's Publisher interface.
func (r *RabbitClient) PublishEvent(orgID uuid.UUID, e model.MessageEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	queueName := QueueName(orgID.String())
	err = r.channel.Publish(
		"",        // default exchange
		queueName, // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   e.OccurredAt,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queueName, err)
	}
	return nil
}

// Close cleans up connection and channel
func (r *RabbitClient) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return nil
}

func (r *RabbitClient) UpdateQueueDepth(orgID string) {
	q, err := r.channel.QueueInspect(QueueName(orgID))
	if err != nil {
		log.Warn().Err(err).Str("organization_id", orgID).Msg("failed to inspect event queue")
		return
	}

	metrics.QueueDepth.WithLabelValues(orgID).Set(float64(q.Messages))
}
