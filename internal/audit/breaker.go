package audit

import (
	"context"
	"log/slog"
	"sync/atomic"

	"aide/pkg/platform/circuit"
)

// probeEvery is how often an open breaker lets an entry through to test
// whether the sink has recovered.
const probeEvery = 16

// BreakerSink shields a flaky sink behind a circuit breaker. While the
// circuit is open, most entries are dropped without touching the sink; every
// probeEvery-th entry goes through as a recovery probe. Fan-out is
// best-effort by contract, so dropping is acceptable.
type BreakerSink struct {
	next    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger
	skipped atomic.Uint64
}

func NewBreakerSink(next Sink, logger *slog.Logger) *BreakerSink {
	return &BreakerSink{
		next:    next,
		breaker: circuit.New("audit-sink"),
		logger:  logger,
	}
}

func (s *BreakerSink) Publish(ctx context.Context, entry Entry) error {
	if s.breaker.IsOpen() {
		if s.skipped.Add(1)%probeEvery != 0 {
			return nil
		}
	}

	if err := s.next.Publish(ctx, entry); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "audit sink circuit opened", "error", err)
		}
		return err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "audit sink circuit closed")
	}
	return nil
}
