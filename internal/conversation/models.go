// Package conversation holds assistant chat sessions and their messages.
// Conversations are owned by the user who opened them; the assistant appends
// replies under its own actor identity.
package conversation

import (
	"time"

	id "aide/pkg/domain"
)

// Role is who authored a message within a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is one chat session.
type Conversation struct {
	ID        id.ConversationID `json:"id"`
	OwnerID   string            `json:"owner_id"`
	Title     string            `json:"title,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Message is one turn in a conversation. Messages are append-only.
type Message struct {
	ID             string            `json:"id"`
	ConversationID id.ConversationID `json:"conversation_id"`
	Role           Role              `json:"role"`
	Content        string            `json:"content"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ToolCall is a request the conversation service forwards to the dispatcher
// port. Execution itself lives outside this module.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is what a dispatcher returns for a call.
type ToolResult struct {
	Output map[string]any `json:"output,omitempty"`
}
