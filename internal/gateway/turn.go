package gateway

import (
	"context"
	"time"

	"github.com/vea-app/vea/internal/types"
)

// TurnStatus represents the lifecycle state of a Turn.
type TurnStatus string

const (
	TurnStatusQueued   TurnStatus = "queued"
	TurnStatusRunning  TurnStatus = "running"
	TurnStatusComplete TurnStatus = "complete"
	TurnStatusFailed   TurnStatus = "failed"
)

// Turn tracks a single user utterance queued against a session.
type Turn struct {
	ID        types.TurnID
	Session   *types.ConversationSession
	Identity  types.Identity
	Utterance string
	Refs      []string
	Status    TurnStatus
	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
	Error     error

	// Ctx is set by the queue when the turn starts processing.
	Ctx context.Context

	// OnComplete receives the assistant reply, including the soft error
	// reply produced when processing fails.
	OnComplete func(reply *types.Message)
}

// NewTurn creates a Turn in the Queued state.
func NewTurn(session *types.ConversationSession, identity types.Identity, utterance string, refs []string) *Turn {
	return &Turn{
		ID:        types.NewTurnID(),
		Session:   session,
		Identity:  identity,
		Utterance: utterance,
		Refs:      refs,
		Status:    TurnStatusQueued,
		CreatedAt: time.Now(),
	}
}
