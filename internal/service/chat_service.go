package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	app_errors "ai-chat/backend/internal/errors"
	"ai-chat/backend/internal/llm"
	"ai-chat/backend/internal/model"
	"ai-chat/backend/internal/repository"
)

// defaultTitle is the placeholder title given to implicitly created
// conversations.
const defaultTitle = "New Chat"

type ChatService struct {
	repo         repository.Repository
	llm          llm.Provider
	model        string
	systemPrompt string
}

// CreateMessageRequest carries one user turn into the service. An empty
// ConversationID means "start a new conversation".
type CreateMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"userText" validate:"required"`
}

// CompleteResult is the outcome of a non-streaming turn.
type CompleteResult struct {
	ConversationID string `json:"conversationId"`
	Answer         string `json:"answer"`
}

func NewChatService(repo repository.Repository, provider llm.Provider, modelName, systemPrompt string) *ChatService {
	return &ChatService{repo: repo, llm: provider, model: modelName, systemPrompt: systemPrompt}
}

// ListConversations returns all conversations, newest first.
func (s *ChatService) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	return s.repo.ListConversations(ctx)
}

// GetFullConversation retrieves a conversation's metadata and its ordered
// message log.
func (s *ChatService) GetFullConversation(ctx context.Context, conversationID string) (*model.FullConversation, error) {
	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrNotFound
		}
		return nil, fmt.Errorf("could not get conversation: %w", err)
	}
	messages, err := s.repo.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	return &model.FullConversation{Conversation: *conversation, Messages: messages}, nil
}

// Complete handles the non-streaming variant: one round trip, the full
// answer in the response body. It shares the persistence contract of the
// streaming path.
func (s *ChatService) Complete(ctx context.Context, req *CreateMessageRequest) (*CompleteResult, error) {
	conversation, err := s.resolveConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	userMessage := newMessage(conversation.ID, model.RoleUser, req.Content)
	if err := s.repo.AddMessage(ctx, conversation.ID, userMessage); err != nil {
		return nil, fmt.Errorf("could not save user message: %w", err)
	}

	prompt, err := s.buildPrompt(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}

	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{Model: s.model, Messages: prompt})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrProvider, err)
	}

	assistantMessage := newMessage(conversation.ID, model.RoleAssistant, resp.Content)
	if err := s.repo.AddMessage(ctx, conversation.ID, assistantMessage); err != nil {
		return nil, fmt.Errorf("could not save assistant message: %w", err)
	}

	return &CompleteResult{ConversationID: conversation.ID, Answer: assistantMessage.Content}, nil
}

// StreamMessage is the core of one streaming session: it resolves the
// conversation, persists the user turn, relays the provider's deltas onto
// events in arrival order while accumulating them, and persists the full
// reply before emitting the terminal event.
//
// Exactly one terminal event (Done or Err) is sent, events is always closed,
// and nothing follows the terminal event. On provider or persistence failure
// no assistant message is persisted for the turn. Cancellation of ctx (the
// client hanging up) aborts provider consumption and skips persistence.
func (s *ChatService) StreamMessage(ctx context.Context, req *CreateMessageRequest, events chan<- model.StreamEvent) {
	defer close(events)

	conversation, err := s.resolveConversation(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, app_errors.ErrNotFound) {
			emit(ctx, events, model.StreamEvent{Err: "Could not find conversation"})
		} else {
			slog.Error("Failed to resolve conversation", "error", err)
			emit(ctx, events, model.StreamEvent{Err: "Could not create conversation"})
		}
		return
	}

	userMessage := newMessage(conversation.ID, model.RoleUser, req.Content)
	if err := s.repo.AddMessage(ctx, conversation.ID, userMessage); err != nil {
		slog.Error("Failed to save user message", "conversation_id", conversation.ID, "error", err)
		emit(ctx, events, model.StreamEvent{Err: "Could not save message"})
		return
	}

	prompt, err := s.buildPrompt(ctx, conversation.ID)
	if err != nil {
		slog.Error("Failed to load history", "conversation_id", conversation.ID, "error", err)
		emit(ctx, events, model.StreamEvent{Err: "Could not load history"})
		return
	}

	deltas := make(chan llm.StreamDelta)
	go s.llm.CompleteStream(ctx, &llm.CompletionRequest{Model: s.model, Messages: prompt}, deltas)

	var reply strings.Builder
	for delta := range deltas {
		if delta.Err != nil {
			slog.Error("Provider stream failed", "conversation_id", conversation.ID, "error", delta.Err)
			emit(ctx, events, model.StreamEvent{Err: "Stream failed"})
			return
		}
		if delta.Content == "" {
			continue
		}
		reply.WriteString(delta.Content)
		if !emit(ctx, events, model.StreamEvent{Delta: delta.Content}) {
			slog.Info("Client disconnected mid-stream, aborting", "conversation_id", conversation.ID)
			return
		}
	}

	// The client may have hung up between the last delta and here; a partial
	// turn nobody saw is not persisted.
	if ctx.Err() != nil {
		slog.Info("Client disconnected before completion, skipping persistence", "conversation_id", conversation.ID)
		return
	}

	assistantMessage := newMessage(conversation.ID, model.RoleAssistant, reply.String())
	if err := s.repo.AddMessage(ctx, conversation.ID, assistantMessage); err != nil {
		slog.Error("Failed to save assistant message", "conversation_id", conversation.ID, "error", err)
		emit(ctx, events, model.StreamEvent{Err: "Could not save reply"})
		return
	}

	emit(ctx, events, model.StreamEvent{Done: true, ConversationID: conversation.ID})
}

// emit relays one event to the handler, giving up when the request context is
// canceled. Once the handler has stopped receiving (the client hung up)
// nothing else will ever drain events, so an unguarded send would block this
// goroutine forever.
func emit(ctx context.Context, events chan<- model.StreamEvent, event model.StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// resolveConversation loads the conversation named by conversationID, or
// creates a fresh one when no identifier was supplied. An identifier that
// does not resolve is an error on every entry point; it never falls back to
// creating a conversation.
func (s *ChatService) resolveConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if conversationID != "" {
		conversation, err := s.repo.GetConversation(ctx, conversationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, app_errors.ErrNotFound
			}
			return nil, fmt.Errorf("could not get conversation: %w", err)
		}
		return conversation, nil
	}

	now := time.Now().UTC()
	conversation := &model.Conversation{
		ID:        uuid.NewString(),
		Title:     defaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("could not create conversation: %w", err)
	}
	return conversation, nil
}

// buildPrompt loads the conversation's full history and prepends the fixed
// system instruction. The instruction exists only for the provider call and
// is never persisted.
func (s *ChatService) buildPrompt(ctx context.Context, conversationID string) ([]llm.Message, error) {
	history, err := s.repo.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("could not get message history: %w", err)
	}
	prompt := make([]llm.Message, 0, len(history)+1)
	prompt = append(prompt, llm.Message{Role: string(model.RoleSystem), Content: s.systemPrompt})
	for _, msg := range history {
		prompt = append(prompt, llm.Message{Role: string(msg.Role), Content: msg.Content})
	}
	return prompt, nil
}

func newMessage(conversationID string, role model.Role, content string) *model.Message {
	return &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}
