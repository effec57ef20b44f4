package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenAIProvider_Complete verifies the non-streaming client: request
// shape, auth header, endpoint path, and response parsing — all against an
// httptest stand-in for the provider, so no real network calls are made.
func TestOpenAIProvider_Complete(t *testing.T) {
	var capturedPath, capturedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi there!"}}]}`))
		assert.NoError(t, err)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "test-key")

	resp, err := provider.Complete(context.Background(), &CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: "user", Content: "Hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hi there!", resp.Content)
	assert.Equal(t, "/chat/completions", capturedPath)
	assert.Equal(t, "Bearer test-key", capturedAuth)
}

func TestOpenAIProvider_Complete_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "wrong-key")
	_, err := provider.Complete(context.Background(), &CompletionRequest{Model: "m"})
	assert.ErrorContains(t, err, "non-200 status 401")
}

// TestOpenAIProvider_CompleteStream verifies delta extraction and ordering
// from the provider's SSE wire format, including the [DONE] sentinel and
// chunks without content (role preamble, keep-alives).
func TestOpenAIProvider_CompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
			`data: {"choices":[{"delta":{"content":"Hi"}}]}`,
			`data: {"choices":[{"delta":{"content":" there"}}]}`,
			`data: {"choices":[{"delta":{"content":"!"}}]}`,
			`data: [DONE]`,
		}
		for _, chunk := range chunks {
			_, err := w.Write([]byte(chunk + "\n\n"))
			assert.NoError(t, err)
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "test-key")
	ch := make(chan StreamDelta)
	go provider.CompleteStream(context.Background(), &CompletionRequest{Model: "m"}, ch)

	var got []string
	for delta := range ch {
		require.NoError(t, delta.Err)
		got = append(got, delta.Content)
	}
	assert.Equal(t, []string{"Hi", " there", "!"}, got)
}

func TestOpenAIProvider_CompleteStream_ErrorDelta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "test-key")
	ch := make(chan StreamDelta)
	go provider.CompleteStream(context.Background(), &CompletionRequest{Model: "m"}, ch)

	// The failure must surface as a terminal error delta, and the channel
	// must still be closed.
	delta := <-ch
	assert.Error(t, delta.Err)
	_, open := <-ch
	assert.False(t, open)
}

// TestOpenAIProvider_CompleteStream_AbandonedReceiver pins the shutdown path:
// once the caller's context is canceled the consumer stops draining ch, so the
// terminal error delta has no receiver and CompleteStream must return anyway.
func TestOpenAIProvider_CompleteStream_AbandonedReceiver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := NewOpenAIProvider(server.URL, "test-key")
	ch := make(chan StreamDelta) // nobody ever receives

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = provider.CompleteStream(ctx, &CompletionRequest{Model: "m"}, ch)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CompleteStream never returned without a receiver")
	}
}
