package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vea-app/vea/internal/types"
)

// Postgres implements the message sink and the business data store on a
// pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ types.MessageStore = (*Postgres)(nil)
var _ types.DataStore = (*Postgres)(nil)

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// schema is applied idempotently at startup. The business tables are thin;
// the dashboard application owns richer versions of them and this service
// only reads what the function handlers need.
const schema = `
CREATE TABLE IF NOT EXISTS assistant_sessions (
	id UUID PRIMARY KEY,
	org_id UUID NOT NULL,
	user_id UUID NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS assistant_messages (
	id UUID PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES assistant_sessions(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	media_type TEXT NOT NULL DEFAULT '',
	media_url TEXT NOT NULL DEFAULT '',
	is_generating BOOLEAN NOT NULL DEFAULT false,
	progress INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS assistant_messages_session_idx ON assistant_messages (session_id, created_at);
CREATE TABLE IF NOT EXISTS projects (
	id UUID PRIMARY KEY,
	org_id UUID NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	budget DOUBLE PRECISION NOT NULL DEFAULT 0,
	due_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS tasks (
	id UUID PRIMARY KEY,
	org_id UUID NOT NULL,
	project_id UUID,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'todo',
	priority TEXT NOT NULL DEFAULT 'medium',
	due_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS customers (
	id UUID PRIMARY KEY,
	org_id UUID NOT NULL,
	name TEXT NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS invoices (
	id UUID PRIMARY KEY,
	org_id UUID NOT NULL,
	customer_id UUID,
	number TEXT NOT NULL,
	amount DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	due_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS cash_flow (
	id UUID PRIMARY KEY,
	org_id UUID NOT NULL,
	kind TEXT NOT NULL,
	amount DOUBLE PRECISION NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS time_entries (
	id UUID PRIMARY KEY,
	org_id UUID NOT NULL,
	user_id UUID NOT NULL,
	project_id UUID,
	hours DOUBLE PRECISION NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	date TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// --- MessageStore ---

func (p *Postgres) UpsertSession(ctx context.Context, meta *types.SessionMeta) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO assistant_sessions (id, org_id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, updated_at = EXCLUDED.updated_at`,
		string(meta.ID), meta.OrgID, meta.UserID, meta.Title, meta.CreatedAt, meta.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (p *Postgres) ListSessions(ctx context.Context, orgID, userID uuid.UUID) ([]*types.SessionMeta, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, org_id, user_id, title, created_at, updated_at
		FROM assistant_sessions
		WHERE org_id = $1 AND user_id = $2
		ORDER BY updated_at DESC`, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*types.SessionMeta
	for rows.Next() {
		var m types.SessionMeta
		var id string
		if err := rows.Scan(&id, &m.OrgID, &m.UserID, &m.Title, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		m.ID = types.SessionID(id)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (p *Postgres) AppendMessage(ctx context.Context, msg *types.Message) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO assistant_messages (id, session_id, role, content, media_type, media_url, is_generating, progress, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(msg.ID), string(msg.SessionID), string(msg.Role), msg.Content,
		string(msg.MediaType), msg.MediaURL, msg.IsGenerating, msg.Progress, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateMessage(ctx context.Context, msg *types.Message) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE assistant_messages
		SET content = $1, media_type = $2, media_url = $3, is_generating = $4, progress = $5
		WHERE id = $6`,
		msg.Content, string(msg.MediaType), msg.MediaURL, msg.IsGenerating, msg.Progress, string(msg.ID))
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListMessages(ctx context.Context, sessionID types.SessionID, limit int) ([]*types.Message, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, session_id, role, content, media_type, media_url, is_generating, progress, created_at
		FROM (
			SELECT * FROM assistant_messages WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2
		) latest
		ORDER BY created_at ASC`, string(sessionID), limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*types.Message
	for rows.Next() {
		var m types.Message
		var id, sid, role, mediaType string
		if err := rows.Scan(&id, &sid, &role, &m.Content, &mediaType, &m.MediaURL, &m.IsGenerating, &m.Progress, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = types.MessageID(id)
		m.SessionID = types.SessionID(sid)
		m.Role = types.Role(role)
		m.MediaType = types.MediaType(mediaType)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// --- DataStore ---

func (p *Postgres) ListProjects(ctx context.Context, orgID uuid.UUID, status string) ([]*types.Project, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, org_id, name, status, budget, due_date, created_at
		FROM projects
		WHERE org_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`, orgID, status)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Name, &p.Status, &p.Budget, &p.DueDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateProject(ctx context.Context, proj *types.Project) error {
	if proj.ID == uuid.Nil {
		proj.ID = uuid.New()
	}
	if proj.CreatedAt.IsZero() {
		proj.CreatedAt = time.Now()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO projects (id, org_id, name, status, budget, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		proj.ID, proj.OrgID, proj.Name, proj.Status, proj.Budget, proj.DueDate, proj.CreatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (p *Postgres) ListTasks(ctx context.Context, orgID uuid.UUID, status string) ([]*types.Task, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, org_id, project_id, title, status, priority, due_date, created_at
		FROM tasks
		WHERE org_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`, orgID, status)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*types.Task
	for rows.Next() {
		var t types.Task
		if err := rows.Scan(&t.ID, &t.OrgID, &t.ProjectID, &t.Title, &t.Status, &t.Priority, &t.DueDate, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateTask(ctx context.Context, t *types.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO tasks (id, org_id, project_id, title, status, priority, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.OrgID, t.ProjectID, t.Title, t.Status, t.Priority, t.DueDate, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (p *Postgres) ListCustomers(ctx context.Context, orgID uuid.UUID) ([]*types.Customer, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, org_id, name, company, email, created_at
		FROM customers WHERE org_id = $1
		ORDER BY name`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []*types.Customer
	for rows.Next() {
		var c types.Customer
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Company, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (p *Postgres) ListInvoices(ctx context.Context, orgID uuid.UUID, status string) ([]*types.Invoice, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, org_id, customer_id, number, amount, status, due_date, created_at
		FROM invoices
		WHERE org_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`, orgID, status)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []*types.Invoice
	for rows.Next() {
		var inv types.Invoice
		if err := rows.Scan(&inv.ID, &inv.OrgID, &inv.CustomerID, &inv.Number, &inv.Amount, &inv.Status, &inv.DueDate, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}

func (p *Postgres) ListCashFlow(ctx context.Context, orgID uuid.UUID, since time.Time) ([]*types.CashFlowEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, org_id, kind, amount, category, note, occurred_at
		FROM cash_flow
		WHERE org_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at DESC`, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("list cash flow: %w", err)
	}
	defer rows.Close()

	var out []*types.CashFlowEntry
	for rows.Next() {
		var e types.CashFlowEntry
		if err := rows.Scan(&e.ID, &e.OrgID, &e.Kind, &e.Amount, &e.Category, &e.Note, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan cash flow entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (p *Postgres) ListTimeEntries(ctx context.Context, orgID uuid.UUID, since time.Time) ([]*types.TimeEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, org_id, user_id, project_id, hours, note, date
		FROM time_entries
		WHERE org_id = $1 AND date >= $2
		ORDER BY date DESC`, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	var out []*types.TimeEntry
	for rows.Next() {
		var e types.TimeEntry
		if err := rows.Scan(&e.ID, &e.OrgID, &e.UserID, &e.ProjectID, &e.Hours, &e.Note, &e.Date); err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// GetSession fetches a single session row scoped to an organization.
func (p *Postgres) GetSession(ctx context.Context, id types.SessionID, orgID uuid.UUID) (*types.SessionMeta, error) {
	var m types.SessionMeta
	var sid string
	err := p.pool.QueryRow(ctx, `
		SELECT id, org_id, user_id, title, created_at, updated_at
		FROM assistant_sessions WHERE id = $1 AND org_id = $2`,
		string(id), orgID).Scan(&sid, &m.OrgID, &m.UserID, &m.Title, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	m.ID = types.SessionID(sid)
	return &m, nil
}
