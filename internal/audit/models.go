// Package audit is the append-only ledger behind every governed mutation.
//
// Writes are never permission-checked: any component may always record what
// it did. Reads require the ledger's own read permission. Entries have no
// update or delete lifecycle; the only operation is insert, individually or
// batched, in insertion order.
package audit

import (
	"time"

	"aide/internal/actor"
	id "aide/pkg/domain"
)

// ReadPermission gates ledger queries. Writes are intentionally ungated.
const ReadPermission = "audit:read"

// Entry is one immutable ledger row.
type Entry struct {
	ID        id.AuditEventID `json:"id"`
	Timestamp time.Time       `json:"timestamp"`

	// ActorID is the acting identity: a user UUID for human actors, empty
	// for system, the fixed sentinel for ai.
	ActorID   string `json:"actor_id,omitempty"`
	ActorType string `json:"actor_type"`

	// Action encodes the transition or operation, e.g. "knowledge.approve".
	Action       string `json:"action"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`

	// Details carries transition-specific context (reason, notes, changed
	// fields). Free-form; the ledger never interprets it.
	Details map[string]any `json:"details,omitempty"`

	// Provenance copied verbatim from the actor context.
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// ClientName/ClientOS are normalized from the raw user agent at write
	// time so actor-history queries don't re-parse UA strings.
	ClientName string `json:"client_name,omitempty"`
	ClientOS   string `json:"client_os,omitempty"`
}

// Record is what callers hand to the ledger: the event minus everything the
// ledger derives from the actor snapshot and the clock.
type Record struct {
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
}

// Filter narrows ledger queries. Zero fields match everything.
type Filter struct {
	ActorID      string
	ActorType    string
	Action       string
	ResourceType string
	ResourceID   string
	Since        *time.Time
	Until        *time.Time
}

// Page is cursor pagination. Cursor is opaque to the ledger and forwarded to
// the store as-is.
type Page struct {
	Limit  int
	Cursor string
}

// Pagination bounds. Limits outside [1,100] are clamped, zero means default.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Clamp normalizes the page limit into [1, MaxPageLimit].
func (p Page) Clamp() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// QueryResult is one page of entries plus the cursor for the next.
type QueryResult struct {
	Entries    []Entry `json:"entries"`
	NextCursor string  `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// actorIDFor maps an actor to the ledger's ActorID column: human actors by
// account UUID, system actors by absence, ai by sentinel.
func actorIDFor(act actor.Context) string {
	switch act.Kind {
	case actor.KindSystem:
		return ""
	case actor.KindAI:
		return actor.AIActorID
	default:
		return act.ID.String()
	}
}
