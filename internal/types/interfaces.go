package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageStore is the durable sink for sessions and messages. Writes from the
// orchestration path are best-effort: a failing sink degrades persistence,
// never the conversation.
type MessageStore interface {
	UpsertSession(ctx context.Context, meta *SessionMeta) error
	ListSessions(ctx context.Context, orgID, userID uuid.UUID) ([]*SessionMeta, error)
	AppendMessage(ctx context.Context, msg *Message) error
	UpdateMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, sessionID SessionID, limit int) ([]*Message, error)
}

// DataStore is the tenant-scoped business data layer the function handlers
// delegate to.
type DataStore interface {
	ListProjects(ctx context.Context, orgID uuid.UUID, status string) ([]*Project, error)
	CreateProject(ctx context.Context, p *Project) error
	ListTasks(ctx context.Context, orgID uuid.UUID, status string) ([]*Task, error)
	CreateTask(ctx context.Context, t *Task) error
	ListCustomers(ctx context.Context, orgID uuid.UUID) ([]*Customer, error)
	ListInvoices(ctx context.Context, orgID uuid.UUID, status string) ([]*Invoice, error)
	ListCashFlow(ctx context.Context, orgID uuid.UUID, since time.Time) ([]*CashFlowEntry, error)
	ListTimeEntries(ctx context.Context, orgID uuid.UUID, since time.Time) ([]*TimeEntry, error)
}
