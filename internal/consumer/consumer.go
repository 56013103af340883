// internal/consumer/consumer.go
package consumer

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"org-messaging/internal/events"
	"org-messaging/internal/worker"
)

// Consumer drains an organization's event queue and hands deliveries to
// the worker pool.
type Consumer struct {
	OrgID       string
	QueueName   string
	Channel     *amqp.Channel
	StopChan    chan struct{}
	DoneChan    chan struct{}
	ConsumerTag string
	Pool        *worker.Pool
}

// StartConsumer starts a goroutine that consumes lifecycle events for an
// organization.
func StartConsumer(conn *amqp.Connection, orgID string, pool *worker.Pool) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("organization %s: failed to open channel: %w", orgID, err)
	}

	queueName := events.QueueName(orgID)
	consumerTag := fmt.Sprintf("consumer-%s", orgID)

	msgs, err := ch.Consume(
		queueName,
		consumerTag,
		false, // autoAck: false, workers ack after the audit row lands
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("organization %s: failed to start consuming: %w", orgID, err)
	}

	c := &Consumer{
		OrgID:       orgID,
		QueueName:   queueName,
		Channel:     ch,
		StopChan:    make(chan struct{}),
		DoneChan:    make(chan struct{}),
		ConsumerTag: consumerTag,
		Pool:        pool,
	}

	go c.consumeLoop(msgs)

	log.Info().Str("organization_id", orgID).Msg("started event consumer")
	return c, nil
}

// consumeLoop dispatches deliveries until StopChan is closed
func (c *Consumer) consumeLoop(msgs <-chan amqp.Delivery) {
	defer func() {
		close(c.DoneChan)
	}()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				log.Info().Str("organization_id", c.OrgID).Msg("delivery channel closed")
				return
			}
			c.Pool.Submit(msg)

		case <-c.StopChan:
			_ = c.Channel.Cancel(c.ConsumerTag, false)
			return
		}
	}
}

// Stop signals the consumer to stop, waits for cleanup, and stops the pool
func (c *Consumer) Stop() {
	close(c.StopChan)
	<-c.DoneChan
	c.Pool.Stop()
	_ = c.Channel.Close()
	log.Info().Str("organization_id", c.OrgID).Msg("stopped event consumer")
}

func (c *Consumer) SetWorkerCount(n int) {
	c.Pool.SetWorkerCount(n)
}
