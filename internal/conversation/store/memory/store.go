// Package memory holds the in-memory conversation store.
package memory

import (
	"context"
	"sync"

	"aide/internal/conversation"
	id "aide/pkg/domain"
	"aide/pkg/platform/sentinel"
)

type Store struct {
	mu            sync.RWMutex
	conversations map[id.ConversationID]*conversation.Conversation
	messages      map[id.ConversationID][]*conversation.Message
	order         []id.ConversationID
}

func New() *Store {
	return &Store{
		conversations: make(map[id.ConversationID]*conversation.Conversation),
		messages:      make(map[id.ConversationID][]*conversation.Message),
	}
}

func (s *Store) CreateConversation(_ context.Context, conv *conversation.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[conv.ID]; exists {
		return sentinel.ErrConflict
	}
	c := *conv
	s.conversations[conv.ID] = &c
	s.order = append(s.order, conv.ID)
	return nil
}

func (s *Store) GetConversation(_ context.Context, convID id.ConversationID) (*conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[convID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *conv
	return &c, nil
}

func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]*conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*conversation.Conversation
	for _, convID := range s.order {
		conv := s.conversations[convID]
		if conv.OwnerID == ownerID {
			c := *conv
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) AppendMessage(_ context.Context, msg *conversation.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	m := *msg
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], &m)
	conv.UpdatedAt = msg.CreatedAt
	return nil
}

func (s *Store) ListMessages(_ context.Context, convID id.ConversationID) ([]*conversation.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.conversations[convID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	msgs := s.messages[convID]
	out := make([]*conversation.Message, 0, len(msgs))
	for _, msg := range msgs {
		m := *msg
		out = append(out, &m)
	}
	return out, nil
}
