package functions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vea-app/vea/internal/types"
)

// buildHandlers binds every catalog function to the data store. Handlers are
// thin tenant-scoped glue; the interesting logic lives in the summary and
// health computations below.
func buildHandlers(store types.DataStore) map[string]Handler {
	return map[string]Handler{
		"get_dashboard_overview": func(ctx context.Context, _ map[string]string, id types.Identity) (any, error) {
			return dashboardOverview(ctx, store, id)
		},
		"get_projects": func(ctx context.Context, params map[string]string, id types.Identity) (any, error) {
			return store.ListProjects(ctx, id.OrgID, params["status"])
		},
		"create_project": func(ctx context.Context, params map[string]string, id types.Identity) (any, error) {
			return createProject(ctx, store, params, id)
		},
		"get_tasks": func(ctx context.Context, params map[string]string, id types.Identity) (any, error) {
			return store.ListTasks(ctx, id.OrgID, params["status"])
		},
		"create_task": func(ctx context.Context, params map[string]string, id types.Identity) (any, error) {
			return createTask(ctx, store, params, id)
		},
		"get_customers": func(ctx context.Context, _ map[string]string, id types.Identity) (any, error) {
			return store.ListCustomers(ctx, id.OrgID)
		},
		"get_financial_summary": func(ctx context.Context, params map[string]string, id types.Identity) (any, error) {
			return financialSummary(ctx, store, id, params["period"])
		},
		"get_invoices": func(ctx context.Context, params map[string]string, id types.Identity) (any, error) {
			return store.ListInvoices(ctx, id.OrgID, params["status"])
		},
		"get_cash_flow": func(ctx context.Context, params map[string]string, id types.Identity) (any, error) {
			return store.ListCashFlow(ctx, id.OrgID, periodStart(params["period"], "month"))
		},
		"get_time_tracking": func(ctx context.Context, params map[string]string, id types.Identity) (any, error) {
			return timeTracking(ctx, store, id, params["period"])
		},
		"analyze_business_health": func(ctx context.Context, _ map[string]string, id types.Identity) (any, error) {
			return businessHealth(ctx, store, id)
		},
	}
}

// periodStart maps a period keyword to its start time. Unknown values fall
// back to the given default period.
func periodStart(period, def string) time.Time {
	if period == "" {
		period = def
	}
	now := time.Now()
	switch period {
	case "week":
		return now.AddDate(0, 0, -7)
	case "quarter":
		return now.AddDate(0, -3, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

func createProject(ctx context.Context, store types.DataStore, params map[string]string, id types.Identity) (any, error) {
	name := params["name"]
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	p := &types.Project{
		OrgID:  id.OrgID,
		Name:   name,
		Status: "active",
	}
	if v := params["budget"]; v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid budget %q", v)
		}
		p.Budget = budget
	}
	if v := params["due_date"]; v != "" {
		due, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date %q, expected YYYY-MM-DD", v)
		}
		p.DueDate = &due
	}
	if err := store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func createTask(ctx context.Context, store types.DataStore, params map[string]string, id types.Identity) (any, error) {
	title := params["title"]
	if title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	t := &types.Task{
		OrgID:    id.OrgID,
		Title:    title,
		Status:   "todo",
		Priority: params["priority"],
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if v := params["due_date"]; v != "" {
		due, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date %q, expected YYYY-MM-DD", v)
		}
		t.DueDate = &due
	}
	if err := store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DashboardOverview is the combined snapshot behind get_dashboard_overview.
type DashboardOverview struct {
	ActiveProjects  int     `json:"active_projects"`
	OpenTasks       int     `json:"open_tasks"`
	Customers       int     `json:"customers"`
	UnpaidInvoices  int     `json:"unpaid_invoices"`
	UnpaidAmount    float64 `json:"unpaid_amount"`
	RevenueThisWeek float64 `json:"revenue_this_week"`
}

func dashboardOverview(ctx context.Context, store types.DataStore, id types.Identity) (*DashboardOverview, error) {
	projects, err := store.ListProjects(ctx, id.OrgID, "active")
	if err != nil {
		return nil, err
	}
	tasks, err := store.ListTasks(ctx, id.OrgID, "")
	if err != nil {
		return nil, err
	}
	customers, err := store.ListCustomers(ctx, id.OrgID)
	if err != nil {
		return nil, err
	}
	invoices, err := store.ListInvoices(ctx, id.OrgID, "")
	if err != nil {
		return nil, err
	}
	flow, err := store.ListCashFlow(ctx, id.OrgID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	out := &DashboardOverview{
		ActiveProjects: len(projects),
		Customers:      len(customers),
	}
	for _, t := range tasks {
		if t.Status != "done" {
			out.OpenTasks++
		}
	}
	for _, inv := range invoices {
		if inv.Status == "sent" || inv.Status == "overdue" {
			out.UnpaidInvoices++
			out.UnpaidAmount += inv.Amount
		}
	}
	for _, e := range flow {
		if e.Kind == "income" {
			out.RevenueThisWeek += e.Amount
		}
	}
	return out, nil
}

// FinancialSummary aggregates cash flow and invoices for a period.
type FinancialSummary struct {
	Period         string  `json:"period"`
	Revenue        float64 `json:"revenue"`
	Expenses       float64 `json:"expenses"`
	Profit         float64 `json:"profit"`
	PendingAmount  float64 `json:"pending_amount"`
	PendingCount   int     `json:"pending_count"`
	OverdueCount   int     `json:"overdue_count"`
	LargestExpense string  `json:"largest_expense,omitempty"`
}

func financialSummary(ctx context.Context, store types.DataStore, id types.Identity, period string) (*FinancialSummary, error) {
	if period == "" {
		period = "month"
	}
	flow, err := store.ListCashFlow(ctx, id.OrgID, periodStart(period, "month"))
	if err != nil {
		return nil, err
	}
	invoices, err := store.ListInvoices(ctx, id.OrgID, "")
	if err != nil {
		return nil, err
	}

	out := &FinancialSummary{Period: period}
	var largest float64
	for _, e := range flow {
		switch e.Kind {
		case "income":
			out.Revenue += e.Amount
		case "expense":
			out.Expenses += e.Amount
			if e.Amount > largest {
				largest = e.Amount
				out.LargestExpense = e.Category
			}
		}
	}
	out.Profit = out.Revenue - out.Expenses
	for _, inv := range invoices {
		switch inv.Status {
		case "sent":
			out.PendingCount++
			out.PendingAmount += inv.Amount
		case "overdue":
			out.OverdueCount++
			out.PendingAmount += inv.Amount
		}
	}
	return out, nil
}

// TimeTrackingSummary aggregates tracked hours for a period.
type TimeTrackingSummary struct {
	Period       string  `json:"period"`
	TotalHours   float64 `json:"total_hours"`
	EntryCount   int     `json:"entry_count"`
	DailyAverage float64 `json:"daily_average"`
}

func timeTracking(ctx context.Context, store types.DataStore, id types.Identity, period string) (*TimeTrackingSummary, error) {
	if period == "" {
		period = "week"
	}
	since := periodStart(period, "week")
	entries, err := store.ListTimeEntries(ctx, id.OrgID, since)
	if err != nil {
		return nil, err
	}

	out := &TimeTrackingSummary{Period: period, EntryCount: len(entries)}
	for _, e := range entries {
		out.TotalHours += e.Hours
	}
	days := time.Since(since).Hours() / 24
	if days >= 1 {
		out.DailyAverage = out.TotalHours / days
	}
	return out, nil
}

// HealthReport is the output of analyze_business_health: a 0-100 score with
// the findings that produced it.
type HealthReport struct {
	Score           int      `json:"score"`
	Status          string   `json:"status"` // healthy | attention | at_risk
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
}

func businessHealth(ctx context.Context, store types.DataStore, id types.Identity) (*HealthReport, error) {
	summary, err := financialSummary(ctx, store, id, "quarter")
	if err != nil {
		return nil, err
	}
	tasks, err := store.ListTasks(ctx, id.OrgID, "")
	if err != nil {
		return nil, err
	}
	projects, err := store.ListProjects(ctx, id.OrgID, "")
	if err != nil {
		return nil, err
	}

	report := &HealthReport{Score: 100}

	if summary.Profit < 0 {
		report.Score -= 35
		report.Findings = append(report.Findings, fmt.Sprintf("negative profit for the quarter (%.2f)", summary.Profit))
		report.Recommendations = append(report.Recommendations, "Review your largest expense categories and cut recurring costs.")
	} else if summary.Revenue > 0 && summary.Profit/summary.Revenue < 0.1 {
		report.Score -= 15
		report.Findings = append(report.Findings, "profit margin below 10%")
		report.Recommendations = append(report.Recommendations, "Consider raising rates or reducing expenses to improve margin.")
	}

	if summary.OverdueCount > 0 {
		report.Score -= 10 * summary.OverdueCount
		if report.Score < 0 {
			report.Score = 0
		}
		report.Findings = append(report.Findings, fmt.Sprintf("%d overdue invoice(s)", summary.OverdueCount))
		report.Recommendations = append(report.Recommendations, "Follow up on overdue invoices; consider payment reminders.")
	}

	open, overdueTasks := 0, 0
	now := time.Now()
	for _, t := range tasks {
		if t.Status == "done" {
			continue
		}
		open++
		if t.DueDate != nil && t.DueDate.Before(now) {
			overdueTasks++
		}
	}
	if overdueTasks > 0 {
		report.Score -= 5 * overdueTasks
		if report.Score < 0 {
			report.Score = 0
		}
		report.Findings = append(report.Findings, fmt.Sprintf("%d task(s) past their due date", overdueTasks))
		report.Recommendations = append(report.Recommendations, "Re-plan or delegate overdue tasks.")
	}

	if len(projects) == 0 {
		report.Findings = append(report.Findings, "no projects on record")
		report.Recommendations = append(report.Recommendations, "Create a project to start tracking work and budgets.")
	}

	switch {
	case report.Score >= 75:
		report.Status = "healthy"
	case report.Score >= 45:
		report.Status = "attention"
	default:
		report.Status = "at_risk"
	}
	if len(report.Findings) == 0 {
		report.Findings = append(report.Findings, "no issues detected")
	}
	return report, nil
}
