package audit

import (
	"context"
	"errors"
	"log/slog"
)

// ErrInboxFull is returned when the channel sink drops an event because the
// worker is behind. Audit capture is best-effort: publishers log the drop and
// move on.
var ErrInboxFull = errors.New("audit inbox full, event dropped")

// ChannelSink decouples event emission from delivery. Append never blocks;
// when the buffer is full the event is dropped with ErrInboxFull.
type ChannelSink struct {
	inbox chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{inbox: make(chan Event, buffer)}
}

func (s *ChannelSink) Append(_ context.Context, event Event) error {
	select {
	case s.inbox <- event:
		return nil
	default:
		return ErrInboxFull
	}
}

// Inbox is the consumer side, wired into a Worker.
func (s *ChannelSink) Inbox() <-chan Event {
	return s.inbox
}

// Worker consumes audit events from a channel and forwards them to a sink.
// It keeps event capture off the request path: the publisher side stays
// non-blocking for the registration orchestrator.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: slog.Default()}
}

// WithLogger replaces the worker's logger.
func (w *Worker) WithLogger(logger *slog.Logger) *Worker {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// Run delivers events until the context is cancelled. A failing sink does
// not stop the worker; losing an audit event is preferable to losing the
// service.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit sink append failed",
					"action", event.Action,
					"error", err.Error(),
				)
			}
		}
	}
}
