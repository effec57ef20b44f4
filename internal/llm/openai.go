package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Message is one entry of the prompt passed to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the payload for a chat-completions call.
type CompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// CompletionResponse is the provider's full reply for a non-streaming call.
type CompletionResponse struct {
	Content string
}

// StreamDelta is one incremental text fragment of a streaming reply.
// A non-nil Err is terminal: the stream is broken and no further deltas follow.
type StreamDelta struct {
	Content string
	Err     error
}

// Provider defines the interface for interacting with a language model.
type Provider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	// CompleteStream emits deltas on ch in arrival order and closes ch when
	// the provider's sequence is exhausted. Each call is single-use.
	CompleteStream(ctx context.Context, req *CompletionRequest, ch chan<- StreamDelta) error
}

type openAIProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewOpenAIProvider returns a Provider speaking the OpenAI-compatible
// chat-completions protocol against the given base URL.
func NewOpenAIProvider(baseURL, apiKey string) Provider {
	return &openAIProvider{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type chatChoice struct {
	Message Message `json:"message"`
	Delta   Message `json:"delta"`
}

type chatCompletionResponse struct {
	Choices []chatChoice `json:"choices"`
}

func (p *openAIProvider) newRequest(ctx context.Context, req *CompletionRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	return httpReq, nil
}

func (p *openAIProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	req.Stream = false
	httpReq, err := p.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api returned non-200 status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("api returned no choices")
	}
	return &CompletionResponse{Content: chatResp.Choices[0].Message.Content}, nil
}

// CompleteStream reads the provider's SSE stream line by line. Each payload
// line looks like `data: {...}` and carries one delta; `data: [DONE]` ends
// the sequence.
func (p *openAIProvider) CompleteStream(ctx context.Context, req *CompletionRequest, ch chan<- StreamDelta) error {
	defer close(ch)

	// The consumer may have stopped reading after a cancellation, so even the
	// terminal error delta must not block unconditionally.
	fail := func(err error) error {
		select {
		case ch <- StreamDelta{Err: err}:
		case <-ctx.Done():
		}
		return err
	}

	req.Stream = true
	httpReq, err := p.newRequest(ctx, req)
	if err != nil {
		return fail(err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fail(fmt.Errorf("api returned non-200 status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return nil
		}

		var chunk chatCompletionResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fail(fmt.Errorf("could not decode stream chunk: %w", err))
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		select {
		case ch <- StreamDelta{Content: chunk.Choices[0].Delta.Content}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fail(fmt.Errorf("stream interrupted: %w", err))
	}
	return nil
}
