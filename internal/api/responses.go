package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	app_errors "ai-chat/backend/internal/errors"
)

// This file contains shared DTOs for API responses and helpers for sending
// consistent HTTP and SSE responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the fixed liveness payload.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// StreamErrorPayload is the body of a named `error` SSE event.
type StreamErrorPayload struct {
	Message string `json:"message"`
}

// StreamDonePayload is the body of a named `done` SSE event.
type StreamDonePayload struct {
	ConversationID string `json:"conversationId"`
}

// respondWithError maps business-layer sentinel errors to HTTP status codes
// and writes a standard JSON error body. Unrecognized errors become a generic
// 500 so implementation details never leak.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "The requested resource was not found."
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		// Validation errors already carry a user-friendly message.
		message = err.Error()
	default:
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondWithJSON marshals a payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// writeStreamDelta writes one raw text delta as an unnamed SSE event.
// A delta containing newlines is split across consecutive `data:` lines of
// the same event; EventSource rejoins them with "\n", so the client sees the
// exact bytes the provider emitted.
func writeStreamDelta(w http.ResponseWriter, delta string) error {
	var sb strings.Builder
	for _, line := range strings.Split(delta, "\n") {
		sb.WriteString("data: ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	if _, err := io.WriteString(w, sb.String()); err != nil {
		// A write failure here is a strong indicator of a closed connection.
		return fmt.Errorf("failed to write delta to stream: %w", err)
	}
	flush(w)
	return nil
}

// writeStreamEvent writes a named SSE event with a JSON payload. Used for the
// terminal `done` and `error` events.
func writeStreamEvent(w http.ResponseWriter, event string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal stream event payload", "event", event, "error", err)
		return nil
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData)); err != nil {
		return fmt.Errorf("failed to write %s event to stream: %w", event, err)
	}
	flush(w)
	return nil
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
