package functions

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vea-app/vea/internal/store"
	"github.com/vea-app/vea/internal/types"
)

func testIdentity() types.Identity {
	return types.Identity{UserID: uuid.New(), OrgID: uuid.New()}
}

func seededStore(id types.Identity) *store.Memory {
	mem := store.NewMemory()
	ctx := context.Background()

	mem.CreateProject(ctx, &types.Project{OrgID: id.OrgID, Name: "Website relaunch", Status: "active", Budget: 12000})
	mem.CreateTask(ctx, &types.Task{OrgID: id.OrgID, Title: "Draft homepage copy", Status: "todo", Priority: "high"})
	mem.AddCustomer(&types.Customer{OrgID: id.OrgID, Name: "Dana Reyes", Company: "Reyes Consulting"})
	mem.AddInvoice(&types.Invoice{OrgID: id.OrgID, Number: "INV-001", Amount: 2500, Status: "sent"})
	mem.AddInvoice(&types.Invoice{OrgID: id.OrgID, Number: "INV-002", Amount: 900, Status: "overdue"})
	mem.AddCashFlow(&types.CashFlowEntry{OrgID: id.OrgID, Kind: "income", Amount: 4200, Category: "consulting", OccurredAt: time.Now().AddDate(0, 0, -3)})
	mem.AddCashFlow(&types.CashFlowEntry{OrgID: id.OrgID, Kind: "expense", Amount: 1100, Category: "software", OccurredAt: time.Now().AddDate(0, 0, -2)})
	mem.AddTimeEntry(&types.TimeEntry{OrgID: id.OrgID, UserID: id.UserID, Hours: 6.5, Date: time.Now().AddDate(0, 0, -1)})
	return mem
}

func TestDispatchUnknownFunction(t *testing.T) {
	id := testIdentity()
	d := NewDispatcher(NewRegistry(), store.NewMemory())

	res := d.Dispatch(context.Background(), "delete_everything", nil, id)
	if res.Success {
		t.Fatal("unknown function must not succeed")
	}
	if res.Error != "Unknown function: delete_everything" {
		t.Errorf("unexpected error text: %q", res.Error)
	}
}

func TestDispatchTotalCoverage(t *testing.T) {
	// Every catalog name dispatches without a Go error leaking out, even on
	// an empty store with empty params.
	id := testIdentity()
	d := NewDispatcher(NewRegistry(), store.NewMemory())

	for _, desc := range NewRegistry().All() {
		res := d.Dispatch(context.Background(), desc.Name, map[string]string{}, id)
		if !res.Success && desc.Name != "create_project" && desc.Name != "create_task" {
			t.Errorf("%s failed on empty store: %s", desc.Name, res.Error)
		}
	}
}

func TestDispatchHandlerErrorWrapped(t *testing.T) {
	id := testIdentity()
	d := NewDispatcher(NewRegistry(), store.NewMemory())

	// create_project without a name fails inside the handler; the failure
	// must come back as an envelope, not a panic or error return.
	res := d.Dispatch(context.Background(), "create_project", map[string]string{}, id)
	if res.Success {
		t.Fatal("expected failure envelope")
	}
	if res.Error == "" {
		t.Fatal("expected error message in envelope")
	}
	if res.Data != nil {
		t.Error("failure envelope must not carry data")
	}
}

func TestDispatchGetProjects(t *testing.T) {
	id := testIdentity()
	d := NewDispatcher(NewRegistry(), seededStore(id))

	res := d.Dispatch(context.Background(), "get_projects", map[string]string{"status": "active"}, id)
	if !res.Success {
		t.Fatalf("dispatch failed: %s", res.Error)
	}
	projects, ok := res.Data.([]*types.Project)
	if !ok {
		t.Fatalf("unexpected data type %T", res.Data)
	}
	if len(projects) != 1 || projects[0].Name != "Website relaunch" {
		t.Errorf("unexpected projects: %+v", projects)
	}
}

func TestDispatchTenantScoping(t *testing.T) {
	id := testIdentity()
	mem := seededStore(id)
	d := NewDispatcher(NewRegistry(), mem)

	other := testIdentity()
	res := d.Dispatch(context.Background(), "get_projects", nil, other)
	if !res.Success {
		t.Fatalf("dispatch failed: %s", res.Error)
	}
	if projects := res.Data.([]*types.Project); len(projects) != 0 {
		t.Errorf("projects leaked across organizations: %+v", projects)
	}
}

func TestDispatchCreateTask(t *testing.T) {
	id := testIdentity()
	mem := store.NewMemory()
	d := NewDispatcher(NewRegistry(), mem)

	res := d.Dispatch(context.Background(), "create_task", map[string]string{
		"title":    "Send Q3 invoices",
		"priority": "high",
		"due_date": "2026-09-15",
	}, id)
	if !res.Success {
		t.Fatalf("dispatch failed: %s", res.Error)
	}

	tasks, _ := mem.ListTasks(context.Background(), id.OrgID, "todo")
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "Send Q3 invoices" || tasks[0].Priority != "high" {
		t.Errorf("unexpected task: %+v", tasks[0])
	}
	if tasks[0].DueDate == nil || tasks[0].DueDate.Format("2006-01-02") != "2026-09-15" {
		t.Errorf("due date not parsed: %+v", tasks[0].DueDate)
	}
}

func TestDispatchFinancialSummary(t *testing.T) {
	id := testIdentity()
	d := NewDispatcher(NewRegistry(), seededStore(id))

	res := d.Dispatch(context.Background(), "get_financial_summary", map[string]string{"period": "month"}, id)
	if !res.Success {
		t.Fatalf("dispatch failed: %s", res.Error)
	}
	summary := res.Data.(*FinancialSummary)
	if summary.Revenue != 4200 {
		t.Errorf("revenue = %.2f, want 4200", summary.Revenue)
	}
	if summary.Expenses != 1100 {
		t.Errorf("expenses = %.2f, want 1100", summary.Expenses)
	}
	if summary.Profit != 3100 {
		t.Errorf("profit = %.2f, want 3100", summary.Profit)
	}
	if summary.PendingCount != 1 || summary.OverdueCount != 1 {
		t.Errorf("invoice counts wrong: %+v", summary)
	}
	if summary.PendingAmount != 3400 {
		t.Errorf("pending amount = %.2f, want 3400", summary.PendingAmount)
	}
}

func TestDispatchBusinessHealth(t *testing.T) {
	id := testIdentity()
	d := NewDispatcher(NewRegistry(), seededStore(id))

	res := d.Dispatch(context.Background(), "analyze_business_health", nil, id)
	if !res.Success {
		t.Fatalf("dispatch failed: %s", res.Error)
	}
	report := res.Data.(*HealthReport)
	if report.Score < 0 || report.Score > 100 {
		t.Errorf("score out of range: %d", report.Score)
	}
	// The seeded store has one overdue invoice, so at least one finding and
	// a matching recommendation must surface.
	found := false
	for _, f := range report.Findings {
		if strings.Contains(f, "overdue invoice") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an overdue invoice finding, got %v", report.Findings)
	}
	if len(report.Recommendations) == 0 {
		t.Error("expected recommendations")
	}
}

func TestRegistryPromptLines(t *testing.T) {
	reg := NewRegistry()
	lines := make([]string, 0)
	for _, d := range reg.All() {
		lines = append(lines, d.PromptLine())
	}
	joined := strings.Join(lines, "\n")
	for _, name := range []string{
		"get_dashboard_overview", "get_projects", "create_project", "get_tasks",
		"create_task", "get_customers", "get_financial_summary", "get_invoices",
		"get_cash_flow", "get_time_tracking", "analyze_business_health",
	} {
		if !strings.Contains(joined, name) {
			t.Errorf("catalog missing %s", name)
		}
	}
}

func TestRegistryAsTools(t *testing.T) {
	tools := NewRegistry().AsTools()
	if len(tools) != len(Catalog) {
		t.Fatalf("expected %d tools, got %d", len(Catalog), len(tools))
	}
	for _, tool := range tools {
		if tool.Type != "function" {
			t.Errorf("tool %s has type %q", tool.Function.Name, tool.Type)
		}
		if len(tool.Function.Parameters) == 0 {
			t.Errorf("tool %s missing parameter schema", tool.Function.Name)
		}
	}
}
