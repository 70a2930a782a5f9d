package domain

import (
	"github.com/google/uuid"

	dErrors "aide/pkg/domain-errors"
)

// Typed IDs prevent cross-type assignment at compile time. Construct via the
// Parse functions at trust boundaries; direct casting bypasses validation.
type (
	// UserID identifies a human account (user or admin actor).
	UserID uuid.UUID
	// ResourceID identifies a governed resource (knowledge article, system prompt).
	ResourceID uuid.UUID
	// ConversationID identifies an assistant conversation.
	ConversationID uuid.UUID
	// MemoryID identifies a long-term memory entry.
	MemoryID uuid.UUID
	// AuditEventID identifies an audit ledger entry.
	AuditEventID uuid.UUID
)

func parseID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParseUserID validates and returns a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseResourceID validates and returns a ResourceID from external input.
func ParseResourceID(s string) (ResourceID, error) {
	u, err := parseID(s)
	if err != nil {
		return ResourceID{}, err
	}
	return ResourceID(u), nil
}

// ParseConversationID validates and returns a ConversationID from external input.
func ParseConversationID(s string) (ConversationID, error) {
	u, err := parseID(s)
	if err != nil {
		return ConversationID{}, err
	}
	return ConversationID(u), nil
}

// ParseMemoryID validates and returns a MemoryID from external input.
func ParseMemoryID(s string) (MemoryID, error) {
	u, err := parseID(s)
	if err != nil {
		return MemoryID{}, err
	}
	return MemoryID(u), nil
}

// ParseAuditEventID validates and returns an AuditEventID from external input.
func ParseAuditEventID(s string) (AuditEventID, error) {
	u, err := parseID(s)
	if err != nil {
		return AuditEventID{}, err
	}
	return AuditEventID(u), nil
}

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ResourceID) String() string     { return uuid.UUID(id).String() }
func (id ConversationID) String() string { return uuid.UUID(id).String() }
func (id MemoryID) String() string       { return uuid.UUID(id).String() }
func (id AuditEventID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ResourceID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ConversationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id MemoryID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AuditEventID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
