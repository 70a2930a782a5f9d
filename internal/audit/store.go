package audit

import "context"

// Store persists ledger entries. Implementations must treat entries as
// immutable: the contract has no update or delete.
type Store interface {
	InsertOne(ctx context.Context, entry Entry) error
	// InsertBatch applies all entries as one storage-level batch, preserving
	// slice order.
	InsertBatch(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, filter Filter, page Page) (QueryResult, error)
	// ByResource returns the full history for one resource, oldest first.
	ByResource(ctx context.Context, resourceType, resourceID string) ([]Entry, error)
	ByActor(ctx context.Context, actorID string, page Page) (QueryResult, error)
}

// Sink receives a copy of every entry for fan-out (SIEM, analytics topics).
// Sinks are best-effort: a sink failure never fails the ledger write.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}
