package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseHandler writes the given pre-framed SSE events and returns.
func sseHandler(events ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, event := range events {
			_, _ = fmt.Fprint(w, event)
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// TestClient_Submit_HappyPath walks one full turn: optimistic user message
// and assistant placeholder, deltas growing the placeholder in order, and
// the done event recording the conversation identifier and clearing busy.
func TestClient_Submit_HappyPath(t *testing.T) {
	var capturedQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery.Store(r.URL.Query().Get("q"))
		sseHandler(
			"data: Hi\n\n",
			"data:  there\n\n",
			"data: !\n\n",
			"event: done\ndata: {\"conversationId\":\"conv-1\"}\n\n",
		)(w, r)
	}))
	defer server.Close()

	c := New(server.URL)
	session, err := c.Submit(context.Background(), "Hello")
	require.NoError(t, err)
	require.True(t, c.Busy())

	require.NoError(t, session.Wait())

	messages := c.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, roleUser, messages[0].Role)
	assert.Equal(t, "Hello", messages[0].Content)
	assert.Equal(t, roleAssistant, messages[1].Role)
	assert.Equal(t, "Hi there!", messages[1].Content)

	assert.Equal(t, "conv-1", c.ConversationID())
	assert.False(t, c.Busy())
	assert.Equal(t, "Hello", capturedQuery.Load())
}

// TestClient_Submit_EmptyPrompt checks that blank prompts are rejected
// locally, before any network call is made.
func TestClient_Submit_EmptyPrompt(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	c := New(server.URL)
	for _, prompt := range []string{"", "   ", "\n\t"} {
		_, err := c.Submit(context.Background(), prompt)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	}

	assert.Empty(t, c.Messages())
	assert.Zero(t, requests.Load())
}

// TestClient_Submit_ReusesConversation checks that a second turn sends the
// identifier recorded from the first done event.
func TestClient_Submit_ReusesConversation(t *testing.T) {
	var turn atomic.Int32
	var secondTurnConversationID atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if turn.Add(1) == 2 {
			secondTurnConversationID.Store(r.URL.Query().Get("conversationId"))
		}
		sseHandler(
			"data: ok\n\n",
			"event: done\ndata: {\"conversationId\":\"conv-1\"}\n\n",
		)(w, r)
	}))
	defer server.Close()

	c := New(server.URL)

	session, err := c.Submit(context.Background(), "Hello")
	require.NoError(t, err)
	require.NoError(t, session.Wait())

	session, err = c.Submit(context.Background(), "How are you?")
	require.NoError(t, err)
	require.NoError(t, session.Wait())

	assert.Equal(t, "conv-1", secondTurnConversationID.Load())
	require.Len(t, c.Messages(), 4)
}

// TestClient_Submit_ErrorEvent checks failure termination: the error event
// surfaces via Wait, busy clears, and the placeholder keeps whatever partial
// content it accumulated — no rollback.
func TestClient_Submit_ErrorEvent(t *testing.T) {
	server := httptest.NewServer(sseHandler(
		"data: Par\n\n",
		"event: error\ndata: {\"message\":\"Stream failed\"}\n\n",
	))
	defer server.Close()

	c := New(server.URL)
	session, err := c.Submit(context.Background(), "Hello")
	require.NoError(t, err)

	err = session.Wait()
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "Stream failed", streamErr.Message)

	messages := c.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "Par", messages[1].Content)
	assert.False(t, c.Busy())
}

// TestClient_Submit_ReplacesPriorStream covers rapid double submission: the
// second Submit closes the first session's transport, and only the second
// stream's deltas reach the message that is last at that point.
func TestClient_Submit_ReplacesPriorStream(t *testing.T) {
	firstStarted := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		if r.URL.Query().Get("q") == "first" {
			// Emit one delta, then stall until the client hangs up.
			_, _ = fmt.Fprint(w, "data: old\n\n")
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
			close(firstStarted)
			<-r.Context().Done()
			return
		}
		sseHandler(
			"data: new\n\n",
			"event: done\ndata: {\"conversationId\":\"conv-1\"}\n\n",
		)(w, r)
	}))
	defer server.Close()

	c := New(server.URL)

	first, err := c.Submit(context.Background(), "first")
	require.NoError(t, err)
	select {
	case <-firstStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("first stream never started")
	}
	// Wait until the first delta has been applied locally, so it cannot race
	// onto the second turn's placeholder.
	require.Eventually(t, func() bool {
		messages := c.Messages()
		return len(messages) == 2 && messages[1].Content == "old"
	}, 5*time.Second, 10*time.Millisecond)

	second, err := c.Submit(context.Background(), "second")
	require.NoError(t, err)

	require.NoError(t, second.Wait())
	first.Close() // idempotent; already closed by the second submission
	<-first.Done()

	messages := c.Messages()
	require.Len(t, messages, 4)
	// The second stream's delta landed on the trailing placeholder.
	assert.Equal(t, "new", messages[3].Content)
	assert.False(t, c.Busy())
	assert.Equal(t, "conv-1", c.ConversationID())
}

// TestSession_Close verifies that abandoning a stream mid-flight terminates
// the session without corrupting the local message list.
func TestSession_Close(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(w, "data: Par\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	c := New(server.URL)
	session, err := c.Submit(context.Background(), "Hello")
	require.NoError(t, err)

	// Give the delta a moment to arrive, then hang up.
	assert.Eventually(t, func() bool {
		messages := c.Messages()
		return len(messages) == 2 && messages[1].Content == "Par"
	}, 5*time.Second, 10*time.Millisecond)

	session.Close()
	assert.Error(t, session.Wait())
	assert.False(t, c.Busy())
}
