// Package sink adapts live connections to the EventSink contract.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"task-portal/domain/event"
)

// ChanSink is a buffered-channel sink drained by a connection's write pump.
// A full buffer means the peer is too slow, Consume then blocks until the
// caller's context expires and the event is dropped. Closing the sink never
// closes the Events channel, so late producers cannot panic.
type ChanSink struct {
	log       *slog.Logger
	Events    chan event.DomainEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewChanSink(log *slog.Logger, buffer int) *ChanSink {
	return &ChanSink{
		log:    log,
		Events: make(chan event.DomainEvent, buffer),
		done:   make(chan struct{}),
	}
}

func (s *ChanSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return fmt.Errorf("sink closed")
	default:
	}

	select {
	case s.Events <- e:
		return nil
	case <-s.done:
		return fmt.Errorf("sink closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the sink dead. Safe to call more than once.
func (s *ChanSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Done is closed once the sink is no longer drained.
func (s *ChanSink) Done() <-chan struct{} {
	return s.done
}
