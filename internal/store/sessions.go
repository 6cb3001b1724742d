package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vea-app/vea/internal/types"
)

// Sessions tracks the active in-memory conversations and rehydrates them
// from the durable sink on first use. The sink may be nil, in which case
// sessions live only for the lifetime of the process.
type Sessions struct {
	sink         types.MessageStore
	historyLimit int

	mu     sync.Mutex
	active map[types.SessionID]*types.ConversationSession
}

// NewSessions creates a session manager over the given sink. historyLimit
// bounds how many messages are rehydrated per session.
func NewSessions(sink types.MessageStore, historyLimit int) *Sessions {
	if historyLimit <= 0 {
		historyLimit = 200
	}
	return &Sessions{
		sink:         sink,
		historyLimit: historyLimit,
		active:       make(map[types.SessionID]*types.ConversationSession),
	}
}

// Create starts a new conversation owned by identity and registers it with
// the sink best-effort.
func (s *Sessions) Create(ctx context.Context, identity types.Identity, title string) *types.ConversationSession {
	session := types.NewConversationSession(types.NewSessionID(), identity, title)

	s.mu.Lock()
	s.active[session.ID] = session
	s.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.UpsertSession(ctx, session.Meta()); err != nil {
			slog.Warn("session sink write failed", "session_id", session.ID, "error", err)
		}
	}
	return session
}

// Resolve returns the active conversation for id, rehydrating it from the
// sink if the process has not seen it yet. Sessions belonging to a different
// organization or user are invisible.
func (s *Sessions) Resolve(ctx context.Context, id types.SessionID, identity types.Identity) (*types.ConversationSession, error) {
	s.mu.Lock()
	session, ok := s.active[id]
	s.mu.Unlock()
	if ok {
		if session.OrgID != identity.OrgID || session.UserID != identity.UserID {
			return nil, ErrNotFound
		}
		return session, nil
	}

	if s.sink == nil {
		return nil, ErrNotFound
	}

	metas, err := s.sink.ListSessions(ctx, identity.OrgID, identity.UserID)
	if err != nil {
		return nil, err
	}
	var meta *types.SessionMeta
	for _, m := range metas {
		if m.ID == id {
			meta = m
			break
		}
	}
	if meta == nil {
		return nil, ErrNotFound
	}

	session = types.NewConversationSession(meta.ID, identity, meta.Title)
	session.CreatedAt = meta.CreatedAt
	msgs, err := s.sink.ListMessages(ctx, id, s.historyLimit)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		session.Append(m)
	}

	s.mu.Lock()
	// Another goroutine may have rehydrated concurrently; keep the first.
	if existing, ok := s.active[id]; ok {
		session = existing
	} else {
		s.active[id] = session
	}
	s.mu.Unlock()
	return session, nil
}

// List returns the identity's sessions from the sink, falling back to the
// in-memory set when no sink is configured.
func (s *Sessions) List(ctx context.Context, identity types.Identity) ([]*types.SessionMeta, error) {
	if s.sink != nil {
		return s.sink.ListSessions(ctx, identity.OrgID, identity.UserID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*types.SessionMeta
	for _, session := range s.active {
		if session.OrgID == identity.OrgID && session.UserID == identity.UserID {
			out = append(out, session.Meta())
		}
	}
	return out, nil
}
