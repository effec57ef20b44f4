package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ai-chat/backend/internal/model"
	"ai-chat/backend/internal/service"
)

// ChatService is the contract the HTTP layer needs from the chat business
// logic. Depending on this interface instead of the concrete service keeps
// handlers testable with mocks.
type ChatService interface {
	ListConversations(ctx context.Context) ([]*model.Conversation, error)
	GetFullConversation(ctx context.Context, conversationID string) (*model.FullConversation, error)
	Complete(ctx context.Context, req *service.CreateMessageRequest) (*service.CompleteResult, error)
	StreamMessage(ctx context.Context, req *service.CreateMessageRequest, events chan<- model.StreamEvent)
}

type ChatHandler struct {
	service ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// GetConversations godoc
// @Summary      List conversations
// @Description  Returns all conversations, most-recently-created first.
// @Tags         Chat
// @Produce      json
// @Success      200  {array}   model.Conversation
// @Failure      500  {object}  ErrorResponse
// @Router       /chat [get]
func (h *ChatHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.service.ListConversations(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if conversations == nil {
		conversations = []*model.Conversation{}
	}
	respondWithJSON(w, http.StatusOK, conversations)
}

// GetConversation godoc
// @Summary      Get one conversation
// @Description  Returns a conversation's metadata and its full ordered message log.
// @Tags         Chat
// @Produce      json
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {object}  model.FullConversation
// @Failure      404             {object}  ErrorResponse
// @Router       /chat/{conversationID} [get]
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	fullConversation, err := h.service.GetFullConversation(r.Context(), conversationID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, fullConversation)
}

// HandleComplete godoc
// @Summary      Send a message (non-streaming)
// @Description  Persists the user turn, calls the completion provider once, and returns the full answer.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        message  body      service.CreateMessageRequest  true  "User message"
// @Success      200      {object}  service.CompleteResult
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /chat [post]
func (h *ChatHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req service.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	result, err := h.service.Complete(r.Context(), &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// HandleStream godoc
// @Summary      Send a message (streaming)
// @Description  Opens a server-sent-event stream. Unnamed events carry raw text deltas; a named `done` or `error` event terminates the stream.
// @Tags         Chat
// @Produce      text/event-stream
// @Param        q               query  string  true   "User prompt"
// @Param        conversationId  query  string  false  "Conversation ID"
// @Success      200
// @Router       /chat/stream [get]
func (h *ChatHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flush(w)

	req := &service.CreateMessageRequest{
		ConversationID: r.URL.Query().Get("conversationId"),
		Content:        r.URL.Query().Get("q"),
	}

	events := make(chan model.StreamEvent)
	go h.service.StreamMessage(r.Context(), req, events)

	for event := range events {
		if r.Context().Err() != nil {
			// Client disconnected; the service observes the same context and
			// winds the session down on its own.
			slog.Info("Client disconnected.")
			break
		}

		var err error
		switch {
		case event.Err != "":
			err = writeStreamEvent(w, "error", StreamErrorPayload{Message: event.Err})
		case event.Done:
			err = writeStreamEvent(w, "done", StreamDonePayload{ConversationID: event.ConversationID})
		default:
			err = writeStreamDelta(w, event.Delta)
		}
		if err != nil {
			slog.Warn("Failed to write to stream, client might have disconnected", "error", err)
			break
		}
	}

	slog.Debug("Finished streaming response.")
}
