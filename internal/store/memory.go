package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vea-app/vea/internal/types"
)

// Memory is an in-memory implementation of both the message sink and the
// business data store. It backs tests and the no-database mode; data does
// not survive a restart.
type Memory struct {
	mu       sync.RWMutex
	sessions map[types.SessionID]*types.SessionMeta
	messages map[types.SessionID][]*types.Message

	projects  []*types.Project
	tasks     []*types.Task
	customers []*types.Customer
	invoices  []*types.Invoice
	cashFlow  []*types.CashFlowEntry
	timeLog   []*types.TimeEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[types.SessionID]*types.SessionMeta),
		messages: make(map[types.SessionID][]*types.Message),
	}
}

// --- MessageStore ---

func (m *Memory) UpsertSession(ctx context.Context, meta *types.SessionMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *meta
	m.sessions[meta.ID] = &cp
	return nil
}

func (m *Memory) ListSessions(ctx context.Context, orgID, userID uuid.UUID) ([]*types.SessionMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.SessionMeta
	for _, s := range m.sessions {
		if s.OrgID == orgID && s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) AppendMessage(ctx context.Context, msg *types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], &cp)
	return nil
}

func (m *Memory) UpdateMessage(ctx context.Context, msg *types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.messages[msg.SessionID] {
		if existing.ID == msg.ID {
			cp := *msg
			m.messages[msg.SessionID][i] = &cp
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListMessages(ctx context.Context, sessionID types.SessionID, limit int) ([]*types.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[sessionID]
	start := 0
	if limit > 0 && len(msgs) > limit {
		start = len(msgs) - limit
	}
	out := make([]*types.Message, 0, len(msgs)-start)
	for _, msg := range msgs[start:] {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

// --- DataStore ---

func (m *Memory) ListProjects(ctx context.Context, orgID uuid.UUID, status string) ([]*types.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Project
	for _, p := range m.projects {
		if p.OrgID == orgID && (status == "" || p.Status == status) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) CreateProject(ctx context.Context, p *types.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	m.projects = append(m.projects, &cp)
	return nil
}

func (m *Memory) ListTasks(ctx context.Context, orgID uuid.UUID, status string) ([]*types.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Task
	for _, t := range m.tasks {
		if t.OrgID == orgID && (status == "" || t.Status == status) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) CreateTask(ctx context.Context, t *types.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	cp := *t
	m.tasks = append(m.tasks, &cp)
	return nil
}

func (m *Memory) ListCustomers(ctx context.Context, orgID uuid.UUID) ([]*types.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Customer
	for _, c := range m.customers {
		if c.OrgID == orgID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AddCustomer seeds a customer row. Used by tests and demo fixtures.
func (m *Memory) AddCustomer(c *types.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.customers = append(m.customers, &cp)
}

func (m *Memory) ListInvoices(ctx context.Context, orgID uuid.UUID, status string) ([]*types.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Invoice
	for _, inv := range m.invoices {
		if inv.OrgID == orgID && (status == "" || inv.Status == status) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AddInvoice seeds an invoice row.
func (m *Memory) AddInvoice(inv *types.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	cp := *inv
	m.invoices = append(m.invoices, &cp)
}

func (m *Memory) ListCashFlow(ctx context.Context, orgID uuid.UUID, since time.Time) ([]*types.CashFlowEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.CashFlowEntry
	for _, e := range m.cashFlow {
		if e.OrgID == orgID && !e.OccurredAt.Before(since) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AddCashFlow seeds a cash flow entry.
func (m *Memory) AddCashFlow(e *types.CashFlowEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	m.cashFlow = append(m.cashFlow, &cp)
}

func (m *Memory) ListTimeEntries(ctx context.Context, orgID uuid.UUID, since time.Time) ([]*types.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.TimeEntry
	for _, e := range m.timeLog {
		if e.OrgID == orgID && !e.Date.Before(since) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AddTimeEntry seeds a time tracking entry.
func (m *Memory) AddTimeEntry(e *types.TimeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	m.timeLog = append(m.timeLog, &cp)
}
