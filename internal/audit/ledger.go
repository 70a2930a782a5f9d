package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"aide/internal/actor"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/requestcontext"
)

// Ledger is the write/read facade over the audit store.
//
// Log and LogBatch never check permissions: every component, whatever its own
// authorization state, may always record what it did. Store failures on the
// write path are returned as typed errors, never panics, so a logging outage
// cannot abort an otherwise-successful primary mutation in callers that
// choose not to check the result.
type Ledger struct {
	store   Store
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures optional ledger collaborators.
type Option func(*Ledger)

// WithSink attaches a best-effort fan-out sink.
func WithSink(sink Sink) Option {
	return func(l *Ledger) { l.sink = sink }
}

// WithMetrics attaches prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func NewLedger(store Store, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{store: store, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log appends one entry built from the actor snapshot plus the record.
func (l *Ledger) Log(ctx context.Context, act actor.Context, rec Record) error {
	entry := l.buildEntry(ctx, act, rec)
	if err := l.store.InsertOne(ctx, entry); err != nil {
		l.recordFailure(ctx, entry, err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit write failed")
	}
	l.recordWrite(ctx, entry)
	return nil
}

// LogBatch appends entries for every record under one actor snapshot,
// applied as a single storage-level batch in slice order.
func (l *Ledger) LogBatch(ctx context.Context, act actor.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, l.buildEntry(ctx, act, rec))
	}
	if err := l.store.InsertBatch(ctx, entries); err != nil {
		l.recordFailure(ctx, entries[0], err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit batch write failed")
	}
	for _, entry := range entries {
		l.recordWrite(ctx, entry)
	}
	return nil
}

// Query returns a page of entries matching the filter. Requires the ledger
// read permission (system and wildcard holders pass).
func (l *Ledger) Query(ctx context.Context, act actor.Context, filter Filter, page Page) (QueryResult, error) {
	if !act.HasPermission(ReadPermission) {
		return QueryResult{}, dErrors.New(dErrors.CodeForbidden, "audit log access requires the audit read permission")
	}
	result, err := l.store.Query(ctx, filter, page.Clamp())
	if err != nil {
		return QueryResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "audit query failed")
	}
	return result, nil
}

// ResourceHistory returns the complete trail for one resource, oldest first.
func (l *Ledger) ResourceHistory(ctx context.Context, act actor.Context, resourceType, resourceID string) ([]Entry, error) {
	if !act.HasPermission(ReadPermission) {
		return nil, dErrors.New(dErrors.CodeForbidden, "audit log access requires the audit read permission")
	}
	entries, err := l.store.ByResource(ctx, resourceType, resourceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit resource history failed")
	}
	return entries, nil
}

// ActorHistory returns a page of entries recorded under one actor identity.
func (l *Ledger) ActorHistory(ctx context.Context, act actor.Context, actorID string, page Page) (QueryResult, error) {
	if !act.HasPermission(ReadPermission) {
		return QueryResult{}, dErrors.New(dErrors.CodeForbidden, "audit log access requires the audit read permission")
	}
	result, err := l.store.ByActor(ctx, actorID, page.Clamp())
	if err != nil {
		return QueryResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "audit actor history failed")
	}
	return result, nil
}

func (l *Ledger) buildEntry(ctx context.Context, act actor.Context, rec Record) Entry {
	entry := Entry{
		ID:           id.AuditEventID(uuid.New()),
		Timestamp:    requestcontext.Now(ctx),
		ActorID:      actorIDFor(act),
		ActorType:    string(act.Kind),
		Action:       rec.Action,
		ResourceType: rec.ResourceType,
		ResourceID:   rec.ResourceID,
		Details:      rec.Details,
		IPAddress:    act.IP,
		UserAgent:    act.UserAgent,
		RequestID:    act.RequestID,
	}
	if entry.UserAgent != "" {
		ua := useragent.New(entry.UserAgent)
		name, _ := ua.Browser()
		entry.ClientName = name
		entry.ClientOS = ua.OS()
	}
	return entry
}

func (l *Ledger) recordWrite(ctx context.Context, entry Entry) {
	if l.metrics != nil {
		l.metrics.ObserveWrite(entry.ActorType, entry.Action)
	}
	if l.sink == nil {
		return
	}
	// Fan-out is best-effort: sink outages are logged, never surfaced.
	if err := l.sink.Publish(ctx, entry); err != nil {
		l.logger.WarnContext(ctx, "audit sink publish failed",
			"action", entry.Action,
			"resource_id", entry.ResourceID,
			"error", err,
		)
	}
}

func (l *Ledger) recordFailure(ctx context.Context, entry Entry, err error) {
	if l.metrics != nil {
		l.metrics.ObserveWriteFailure()
	}
	l.logger.ErrorContext(ctx, "audit write failed",
		"action", entry.Action,
		"resource_id", entry.ResourceID,
		"error", err,
	)
}
