package types

import "github.com/google/uuid"

type SessionID string
type MessageID string
type TurnID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

func NewTurnID() TurnID {
	return TurnID(uuid.New().String())
}

// Identity is the acting user as resolved by the auth layer. Every data
// access and every dispatched function is scoped to the identity's
// organization.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	OrgID  uuid.UUID `json:"org_id"`
}
