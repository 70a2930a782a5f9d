package audit

import (
	"context"
	"log/slog"
)

// SinkWorker decouples ledger writes from a slow sink. The ledger publishes
// into the inbox; the worker drains it toward the real sink in the
// background. A full inbox drops the entry (the primary store already has
// it) rather than stalling the request path.
type SinkWorker struct {
	sink   Sink
	inbox  chan Entry
	logger *slog.Logger
}

func NewSinkWorker(sink Sink, buffer int, logger *slog.Logger) *SinkWorker {
	if buffer <= 0 {
		buffer = 256
	}
	return &SinkWorker{
		sink:   sink,
		inbox:  make(chan Entry, buffer),
		logger: logger,
	}
}

// Publish enqueues the entry without blocking. Implements Sink, so a worker
// can sit between the ledger and any real sink.
func (w *SinkWorker) Publish(_ context.Context, entry Entry) error {
	select {
	case w.inbox <- entry:
	default:
		w.logger.Warn("audit sink inbox full, dropping fan-out entry",
			"action", entry.Action,
			"resource_id", entry.ResourceID,
		)
	}
	return nil
}

// Run drains the inbox until the context is cancelled. Sink failures are
// logged and skipped; fan-out is best-effort by contract.
func (w *SinkWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.sink.Publish(ctx, entry); err != nil {
				w.logger.WarnContext(ctx, "audit sink publish failed",
					"action", entry.Action,
					"error", err,
				)
			}
		}
	}
}
