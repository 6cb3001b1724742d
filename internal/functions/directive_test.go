package functions

import "testing"

func TestParseDirective(t *testing.T) {
	call, ok := ParseDirective(`FUNCTION_CALL: get_tasks(status: "todo")`)
	if !ok {
		t.Fatal("expected a directive")
	}
	if call.Name != "get_tasks" {
		t.Errorf("expected get_tasks, got %s", call.Name)
	}
	if call.Params["status"] != "todo" {
		t.Errorf("expected status=todo, got %q", call.Params["status"])
	}
}

func TestParseDirectiveUnquoted(t *testing.T) {
	call, ok := ParseDirective("FUNCTION_CALL: get_invoices(status: overdue)")
	if !ok {
		t.Fatal("expected a directive")
	}
	if call.Params["status"] != "overdue" {
		t.Errorf("expected status=overdue, got %q", call.Params["status"])
	}
}

func TestParseDirectiveMultipleParams(t *testing.T) {
	call, ok := ParseDirective(`FUNCTION_CALL: create_task(title: "Fix the roof", priority: high, due_date: 2026-09-15)`)
	if !ok {
		t.Fatal("expected a directive")
	}
	want := map[string]string{
		"title":    "Fix the roof",
		"priority": "high",
		"due_date": "2026-09-15",
	}
	for k, v := range want {
		if call.Params[k] != v {
			t.Errorf("param %s: expected %q, got %q", k, v, call.Params[k])
		}
	}
}

func TestParseDirectiveQuotedComma(t *testing.T) {
	call, ok := ParseDirective(`FUNCTION_CALL: create_project(name: "Website, phase two", budget: 5000)`)
	if !ok {
		t.Fatal("expected a directive")
	}
	if call.Params["name"] != "Website, phase two" {
		t.Errorf("quoted comma mishandled: %q", call.Params["name"])
	}
	if call.Params["budget"] != "5000" {
		t.Errorf("expected budget=5000, got %q", call.Params["budget"])
	}
}

func TestParseDirectiveNoArgs(t *testing.T) {
	call, ok := ParseDirective("Sure, let me check.\n\nFUNCTION_CALL: get_dashboard_overview()")
	if !ok {
		t.Fatal("expected a directive")
	}
	if call.Name != "get_dashboard_overview" {
		t.Errorf("got %s", call.Name)
	}
	if len(call.Params) != 0 {
		t.Errorf("expected no params, got %v", call.Params)
	}
}

func TestParseDirectiveFirstMatchWins(t *testing.T) {
	reply := "FUNCTION_CALL: get_projects()\nFUNCTION_CALL: get_tasks()"
	call, ok := ParseDirective(reply)
	if !ok {
		t.Fatal("expected a directive")
	}
	if call.Name != "get_projects" {
		t.Errorf("expected first match get_projects, got %s", call.Name)
	}
}

func TestParseDirectiveAbsent(t *testing.T) {
	if _, ok := ParseDirective("Your revenue this month was $4,200."); ok {
		t.Error("plain prose should not parse as a directive")
	}
}

func TestParseDirectiveWhitespaceTolerance(t *testing.T) {
	call, ok := ParseDirective("FUNCTION_CALL:   get_tasks( status :  todo )")
	if !ok {
		t.Fatal("expected a directive")
	}
	if call.Params["status"] != "todo" {
		t.Errorf("expected status=todo, got %q", call.Params["status"])
	}
}
