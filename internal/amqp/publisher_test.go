package amqp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"savings/internal/core"
)

type fakeSender struct {
	mu     sync.Mutex
	err    error
	bodies [][]byte
	block  chan struct{}
}

func (f *fakeSender) Publish(ctx context.Context, body []byte) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.bodies = append(f.bodies, body)
	return nil
}

func TestPublisher_SendsQueuedEvents(t *testing.T) {
	sender := &fakeSender{}
	p := NewPublisher(sender, nil, 8)
	p.Start(context.Background())

	p.RecordSaved(context.Background(), core.RecordSaved{Name: "Salary", ChangeCount: 1})
	p.RecordSaved(context.Background(), core.RecordSaved{Name: "Rent", ChangeCount: 2})
	p.Close()

	if len(sender.bodies) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.bodies))
	}
	first, err := RecordSavedMessageFromJSON(sender.bodies[0])
	if err != nil || first.Name != "Salary" {
		t.Errorf("first message = %+v, %v", first, err)
	}
	if s := p.Stats(); s.Published != 2 || s.Failed != 0 || s.Dropped != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestPublisher_CountsFailures(t *testing.T) {
	p := NewPublisher(&fakeSender{err: errors.New("connection refused")}, nil, 4)
	p.Start(context.Background())
	p.RecordSaved(context.Background(), core.RecordSaved{Name: "Salary"})
	p.Close()

	if s := p.Stats(); s.Failed != 1 || s.Published != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestPublisher_DropsWhenFullOrClosed(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	p := NewPublisher(sender, nil, 1)
	p.Start(context.Background())

	// The first event is taken by the send loop and blocks; the second fills
	// the queue; the third has nowhere to go.
	p.RecordSaved(context.Background(), core.RecordSaved{Name: "a"})
	for i := 0; i < 100 && len(p.queue) > 0; i++ {
		time.Sleep(time.Millisecond)
	}
	p.RecordSaved(context.Background(), core.RecordSaved{Name: "b"})
	p.RecordSaved(context.Background(), core.RecordSaved{Name: "c"})

	close(sender.block)
	p.Close()
	p.RecordSaved(context.Background(), core.RecordSaved{Name: "d"})

	s := p.Stats()
	if s.Published != 2 || s.Dropped != 2 {
		t.Errorf("Stats() = %+v, want 2 published and 2 dropped", s)
	}
}
