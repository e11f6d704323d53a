package store

import (
	"context"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
)

// Store is the remote entity store. It offers no ordering or filtering guarantees:
// ListMessages returns every message visible to the caller across all conversations.
type Store interface {
	// Messaging
	ListMessages(ctx context.Context) ([]domain.Message, error)
	CreateMessage(ctx context.Context, msg domain.NewMessage) (domain.Message, error)
	UpdateMessage(ctx context.Context, id string, patch domain.MessagePatch) (domain.Message, error)

	// Conversations
	GetConversation(ctx context.Context, id string) (domain.Conversation, error)
	UpdateConversation(ctx context.Context, id string, patch domain.ConversationPatch) (domain.Conversation, error)
}

// ConversationStore is implemented by stores that can establish and enumerate
// conversations.
type ConversationStore interface {
	Store
	CreateConversation(ctx context.Context, participant domain.ParticipantInfo) (domain.Conversation, error)
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
}
