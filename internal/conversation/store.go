package conversation

import (
	"context"

	id "aide/pkg/domain"
)

// Store persists conversations and their messages. Absent rows surface as
// sentinel.ErrNotFound.
type Store interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, convID id.ConversationID) (*Conversation, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Conversation, error)
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, convID id.ConversationID) ([]*Message, error)
}
