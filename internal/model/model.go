package model

import (
	"fmt"
	"time"
)

// Role is the closed set of message authors. It is validated wherever a
// message crosses the write boundary, so a free-form string can never end up
// in the store.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ParseRole converts a raw string (e.g. a database column) into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown message role %q", s)
	}
	return r, nil
}

// Conversation stores metadata about one chat thread. Conversations are
// created implicitly on the first message of a thread and never deleted here.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is a single immutable entry in a conversation's ordered log.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FullConversation includes the conversation metadata and all its messages
// in creation order.
type FullConversation struct {
	Conversation
	Messages []Message `json:"messages"`
}

// StreamEvent is one chunk relayed from the streaming service to the SSE
// handler. Exactly one terminal event (Done or Err set) ends a stream, and
// no further events follow it.
type StreamEvent struct {
	Delta          string
	Done           bool
	ConversationID string
	Err            string
}
