// Package client is a Go consumer of the streaming chat API. It keeps a
// local ordered message list, opens one server-sent-event stream per
// submitted prompt, grows the trailing assistant placeholder as deltas
// arrive, and finalizes the turn on the terminal `done` or `error` event.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

// ErrEmptyPrompt is returned by Submit for empty or whitespace-only prompts,
// before any network call is made.
var ErrEmptyPrompt = errors.New("client: prompt is empty")

// StreamError is the failure carried by a terminal `error` event.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "client: stream failed: " + e.Message
}

// Message is one entry of the client's local conversation view.
type Message struct {
	ID      string
	Role    string
	Content string
}

// Client drives streaming chat turns against one server. All methods are
// safe for concurrent use; state always attaches to the last message in the
// list, so even an unexpected second live stream degrades gracefully instead
// of corrupting state.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu             sync.Mutex
	conversationID string
	messages       []Message
	busy           bool
	current        *Session
}

// Session is one in-flight streaming exchange, owned by the caller of
// Submit. Closing it cancels its own transport connection and nothing else.
type Session struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Close abandons the stream by cancelling its transport connection. Safe to
// call multiple times and after completion.
func (s *Session) Close() {
	s.cancel()
}

// Done is closed when the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ends and returns its terminal error, if any.
func (s *Session) Wait() error {
	<-s.done
	return s.err
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Submit sends one user prompt. It rejects blank prompts locally, closes any
// still-open prior session, optimistically appends the user message and an
// empty assistant placeholder, and opens the stream. The returned Session is
// owned by the caller.
func (c *Client) Submit(ctx context.Context, prompt string) (*Session, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	streamCtx, cancel := context.WithCancel(ctx)
	session := &Session{cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	if c.current != nil {
		c.current.Close()
	}
	c.current = session
	c.messages = append(c.messages,
		Message{ID: uuid.NewString(), Role: roleUser, Content: prompt},
		Message{ID: uuid.NewString(), Role: roleAssistant, Content: ""},
	)
	c.busy = true
	conversationID := c.conversationID
	c.mu.Unlock()

	go func() {
		defer close(session.done)
		defer cancel()
		err := c.stream(streamCtx, prompt, conversationID)
		c.mu.Lock()
		// A newer submission may already own the busy flag.
		if c.current == session {
			c.busy = false
		}
		c.mu.Unlock()
		session.err = err
	}()

	return session, nil
}

// Messages returns a copy of the local conversation view.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ConversationID returns the identifier recorded from the last successful
// turn; empty until a first `done` event has been received.
func (c *Client) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// Busy reports whether a stream is currently open. UI layers use this to
// disable input; it is advisory only.
func (c *Client) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Client) stream(ctx context.Context, prompt, conversationID string) error {
	params := url.Values{}
	params.Set("q", prompt)
	if conversationID != "" {
		params.Set("conversationId", conversationID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/chat/stream?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned non-200 status %d", resp.StatusCode)
	}

	return c.consume(resp.Body)
}

// consume reads SSE events off the wire until a terminal event or EOF.
// Multiple `data:` lines of one event are rejoined with "\n", restoring the
// exact delta text the server split across lines.
func (c *Client) consume(body io.Reader) error {
	var eventName string
	var dataLines []string

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Blank line dispatches the buffered event.
			if len(dataLines) > 0 {
				data := strings.Join(dataLines, "\n")
				switch eventName {
				case "done":
					c.finalize(data)
					return nil
				case "error":
					var payload struct {
						Message string `json:"message"`
					}
					if err := json.Unmarshal([]byte(data), &payload); err != nil {
						payload.Message = data
					}
					return &StreamError{Message: payload.Message}
				default:
					c.appendDelta(data)
				}
			}
			eventName = ""
			dataLines = nil
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue // comment / keep-alive
		}
		if name, ok := strings.CutPrefix(line, "event:"); ok {
			eventName = strings.TrimSpace(name)
			continue
		}
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			dataLines = append(dataLines, strings.TrimPrefix(data, " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream interrupted: %w", err)
	}
	return fmt.Errorf("stream ended without a terminal event")
}

// appendDelta grows the trailing assistant placeholder. The role check
// guards against an empty list or concurrent mutation; a delta that cannot
// attach is dropped rather than corrupting another message.
func (c *Client) appendDelta(delta string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return
	}
	last := &c.messages[len(c.messages)-1]
	if last.Role != roleAssistant {
		return
	}
	last.Content += delta
}

func (c *Client) finalize(data string) {
	var payload struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil || payload.ConversationID == "" {
		return
	}
	c.mu.Lock()
	c.conversationID = payload.ConversationID
	c.mu.Unlock()
}
