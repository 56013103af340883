package worker

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"org-messaging/internal/metrics"
)

// HandlerFunc processes a single delivery. A non-nil error sends the
// delivery to the organization's DLQ.
type HandlerFunc func(orgID string, delivery amqp.Delivery) error

// Pool runs a resizable set of goroutines draining deliveries handed over
// by the organization's consumer.
type Pool struct {
	orgID   string
	handler HandlerFunc

	mu      sync.Mutex
	jobs    chan amqp.Delivery
	stopCh  chan struct{}
	wg      sync.WaitGroup
	workers int
}

func NewPool(orgID string, workerCount int, handler HandlerFunc) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		orgID:   orgID,
		handler: handler,
		jobs:    make(chan amqp.Delivery, workerCount),
		stopCh:  make(chan struct{}),
		workers: workerCount,
	}
}

func (p *Pool) Start() {
	log.Info().Str("organization_id", p.orgID).Int("workers", p.workers).Msg("starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	metrics.WorkerActive.WithLabelValues(p.orgID).Add(1)
	defer metrics.WorkerActive.WithLabelValues(p.orgID).Sub(1)
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case msg, ok := <-p.jobs:
			if !ok {
				return
			}

			if err := p.handler(p.orgID, msg); err != nil {
				log.Warn().Err(err).Str("organization_id", p.orgID).Msg("failed to process event")
				_ = msg.Reject(false) // send to DLQ
				continue
			}

			_ = msg.Ack(false)
			metrics.EventsProcessed.WithLabelValues(p.orgID).Inc()
		}
	}
}

// Submit hands a delivery to the pool. Blocks while all workers are busy,
// which backpressures the consumer.
func (p *Pool) Submit(delivery amqp.Delivery) {
	p.mu.Lock()
	jobs, stop := p.jobs, p.stopCh
	p.mu.Unlock()

	select {
	case <-stop:
	case jobs <- delivery:
	}
}

func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Pool) stopLocked() {
	close(p.stopCh)
	p.wg.Wait()
}

// SetWorkerCount rescales the pool to a new concurrency level
func (p *Pool) SetWorkerCount(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n <= 0 || n == p.workers {
		return
	}

	log.Info().Str("organization_id", p.orgID).
		Int("from", p.workers).Int("to", n).
		Msg("rescaling worker pool")

	p.stopLocked()

	p.workers = n
	p.stopCh = make(chan struct{})
	p.jobs = make(chan amqp.Delivery, n)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}
