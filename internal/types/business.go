package types

import (
	"time"

	"github.com/google/uuid"
)

// Business records backing the function catalog. These are thin data-layer
// rows; all queries against them are organization-scoped.

type Project struct {
	ID        uuid.UUID  `json:"id"`
	OrgID     uuid.UUID  `json:"org_id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"` // active | completed | on_hold
	Budget    float64    `json:"budget,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Task struct {
	ID        uuid.UUID  `json:"id"`
	OrgID     uuid.UUID  `json:"org_id"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`   // todo | in_progress | done
	Priority  string     `json:"priority"` // low | medium | high
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Customer struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Invoice struct {
	ID         uuid.UUID  `json:"id"`
	OrgID      uuid.UUID  `json:"org_id"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	Number     string     `json:"number"`
	Amount     float64    `json:"amount"`
	Status     string     `json:"status"` // draft | sent | paid | overdue
	DueDate    *time.Time `json:"due_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type CashFlowEntry struct {
	ID         uuid.UUID `json:"id"`
	OrgID      uuid.UUID `json:"org_id"`
	Kind       string    `json:"kind"` // income | expense
	Amount     float64   `json:"amount"`
	Category   string    `json:"category,omitempty"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type TimeEntry struct {
	ID        uuid.UUID  `json:"id"`
	OrgID     uuid.UUID  `json:"org_id"`
	UserID    uuid.UUID  `json:"user_id"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	Hours     float64    `json:"hours"`
	Note      string     `json:"note,omitempty"`
	Date      time.Time  `json:"date"`
}
