package repository

import (
	"context"

	"ai-chat/backend/internal/model"
)

// Repository defines the interface for data storage operations.
// This interface makes it easy to switch database implementations.
type Repository interface {
	CreateConversation(ctx context.Context, conversation *model.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error)
	// ListConversations returns all conversations, most-recently-created first.
	ListConversations(ctx context.Context) ([]*model.Conversation, error)

	// AddMessage appends a message to the conversation's log and bumps the
	// conversation's updated_at in the same transaction.
	AddMessage(ctx context.Context, conversationID string, message *model.Message) error
	// GetMessages returns the conversation's messages in creation order.
	GetMessages(ctx context.Context, conversationID string) ([]model.Message, error)
}
