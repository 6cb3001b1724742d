package types

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Message is one turn in a conversation. For a video message, MediaURL holds
// the provider task id until polling resolves it to a playable URI; callers
// must not dereference MediaURL while IsGenerating is true.
type Message struct {
	ID           MessageID `json:"id"`
	SessionID    SessionID `json:"session_id"`
	Role         Role      `json:"role"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	MediaType    MediaType `json:"media_type,omitempty"`
	MediaURL     string    `json:"media_url,omitempty"`
	IsGenerating bool      `json:"is_generating,omitempty"`
	Progress     int       `json:"progress,omitempty"`
}

// NewMessage creates a message with a fresh id and the current timestamp.
func NewMessage(sessionID SessionID, role Role, content string) *Message {
	return &Message{
		ID:        NewMessageID(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// SessionMeta is the durable index entry for a conversation session.
type SessionMeta struct {
	ID        SessionID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSession holds the rolling message history for one active
// conversation. The orchestrator appends to it during a turn; the media
// poller updates individual messages it was handed via UpdateMessage. All
// access goes through the mutex so concurrent pollers and turns stay safe.
type ConversationSession struct {
	ID        SessionID
	OrgID     uuid.UUID
	UserID    uuid.UUID
	Title     string
	CreatedAt time.Time

	mu       sync.Mutex
	messages []*Message
}

// NewConversationSession creates an empty session owned by the given identity.
func NewConversationSession(id SessionID, identity Identity, title string) *ConversationSession {
	return &ConversationSession{
		ID:        id,
		OrgID:     identity.OrgID,
		UserID:    identity.UserID,
		Title:     title,
		CreatedAt: time.Now(),
	}
}

// Append adds a message to the end of the history.
func (s *ConversationSession) Append(m *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// Messages returns a snapshot of the history. Each message is a value copy
// taken under the session lock, so callers can read or encode the snapshot
// while a poller keeps mutating the live messages via UpdateMessage.
func (s *ConversationSession) Messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.messages))
	for i, m := range s.messages {
		cp := *m
		out[i] = &cp
	}
	return out
}

// Recent returns a snapshot of the last n messages, oldest first.
func (s *ConversationSession) Recent(n int) []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]*Message, len(s.messages)-start)
	for i, m := range s.messages[start:] {
		cp := *m
		out[i] = &cp
	}
	return out
}

// Len returns the number of messages in the history.
func (s *ConversationSession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// UpdateMessage applies fn to the message with the given id under the session
// lock and returns a copy of the updated message. Returns nil if the id is
// unknown. This is the only write path for MediaURL/IsGenerating/Progress
// after a message has been appended.
func (s *ConversationSession) UpdateMessage(id MessageID, fn func(*Message)) *Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == id {
			fn(m)
			updated := *m
			return &updated
		}
	}
	return nil
}

// Meta returns the durable index entry for this session.
func (s *ConversationSession) Meta() *SessionMeta {
	return &SessionMeta{
		ID:        s.ID,
		OrgID:     s.OrgID,
		UserID:    s.UserID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: time.Now(),
	}
}
