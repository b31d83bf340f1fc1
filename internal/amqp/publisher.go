package amqp

import (
	"context"
	"sync"
	"sync/atomic"

	"savings/internal/core"
	"savings/internal/log"
)

// Sender delivers one encoded message.
type Sender interface {
	Publish(ctx context.Context, body []byte) error
}

// PublisherStats counts what happened to announced saves.
type PublisherStats struct {
	Published int64
	Failed    int64
	Dropped   int64
}

// Publisher announces accepted saves without holding up the request that
// made them: events are queued and sent by a background goroutine. When the
// queue is full the event is dropped and counted.
type Publisher struct {
	sender Sender
	logger *log.Logger
	queue  chan *RecordSavedMessage

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	published atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewPublisher creates a publisher with room for buffer pending events.
func NewPublisher(sender Sender, logger *log.Logger, buffer int) *Publisher {
	if logger == nil {
		logger = log.Discard()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Publisher{
		sender: sender,
		logger: logger.WithComponent(log.ComponentAMQP),
		queue:  make(chan *RecordSavedMessage, buffer),
	}
}

// Start runs the send loop until Close. ctx bounds each send.
func (p *Publisher) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for msg := range p.queue {
			p.send(ctx, msg)
		}
	}()
}

func (p *Publisher) send(ctx context.Context, msg *RecordSavedMessage) {
	body, err := msg.ToJSON()
	if err != nil {
		p.failed.Add(1)
		p.logger.ErrorContext(ctx, "Failed to encode record saved message", log.FieldError, err.Error())
		return
	}
	if err := p.sender.Publish(ctx, body); err != nil {
		p.failed.Add(1)
		fields := log.NewFields().
			WithOperation(log.OpPublish).
			WithErrorType(log.ErrorTypeNetwork).
			WithError(err)
		fields[log.FieldRecordName] = msg.Name
		p.logger.ErrorContext(ctx, "Failed to publish record saved message", fields.ToSlice()...)
		return
	}
	p.published.Add(1)
	p.logger.InfoContext(ctx, "Published record saved message",
		log.FieldRecordName, msg.Name,
		log.FieldChangeCount, msg.ChangeCount)
}

// RecordSaved queues event for publishing.
func (p *Publisher) RecordSaved(ctx context.Context, event core.RecordSaved) {
	msg := NewRecordSavedMessage(event)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "Publish queue full, dropping record saved message",
			log.FieldRecordName, event.Name)
	}
}

// Close stops accepting events and waits for queued ones to be sent.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

// Stats returns the current counters.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		Published: p.published.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
	}
}
