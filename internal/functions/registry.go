package functions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vea-app/vea/pkg/llm"
)

// Descriptor is a static catalog entry for one business-data function. The
// description and parameter hints are sent to the language model verbatim;
// they are advisory, not enforced at the schema level.
type Descriptor struct {
	Name        string
	Description string
	Parameters  map[string]string
}

// Catalog is the fixed set of functions the assistant can call. The name
// strings are part of the prompt contract and must not change.
var Catalog = []Descriptor{
	{
		Name:        "get_dashboard_overview",
		Description: "Get a combined overview of projects, tasks, invoices and recent activity",
		Parameters:  map[string]string{},
	},
	{
		Name:        "get_projects",
		Description: "List the user's projects, optionally filtered by status",
		Parameters:  map[string]string{"status": "string, optional: active | completed | on_hold"},
	},
	{
		Name:        "create_project",
		Description: "Create a new project",
		Parameters: map[string]string{
			"name":     "string, required",
			"budget":   "number, optional",
			"due_date": "string, optional, format YYYY-MM-DD",
		},
	},
	{
		Name:        "get_tasks",
		Description: "List the user's tasks, optionally filtered by status",
		Parameters:  map[string]string{"status": "string, optional: todo | in_progress | done"},
	},
	{
		Name:        "create_task",
		Description: "Create a new task",
		Parameters: map[string]string{
			"title":    "string, required",
			"priority": "string, optional: low | medium | high",
			"due_date": "string, optional, format YYYY-MM-DD",
		},
	},
	{
		Name:        "get_customers",
		Description: "List the user's customers",
		Parameters:  map[string]string{},
	},
	{
		Name:        "get_financial_summary",
		Description: "Summarize revenue, expenses, profit and outstanding invoices for a period",
		Parameters:  map[string]string{"period": "string, optional: month | quarter | year (default month)"},
	},
	{
		Name:        "get_invoices",
		Description: "List invoices, optionally filtered by status",
		Parameters:  map[string]string{"status": "string, optional: draft | sent | paid | overdue"},
	},
	{
		Name:        "get_cash_flow",
		Description: "List cash flow entries (income and expenses) for a period",
		Parameters:  map[string]string{"period": "string, optional: month | quarter | year (default month)"},
	},
	{
		Name:        "get_time_tracking",
		Description: "Summarize tracked working hours for a period",
		Parameters:  map[string]string{"period": "string, optional: week | month (default week)"},
	},
	{
		Name:        "analyze_business_health",
		Description: "Analyze overall business health and give a score with recommendations",
		Parameters:  map[string]string{},
	},
}

// Registry holds the function catalog and provides lookup plus conversions
// for the prompt builder and for providers with native tool calling.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

// NewRegistry creates a registry populated with the fixed catalog.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Descriptor, len(Catalog))}
	for _, d := range Catalog {
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// All returns the descriptors in catalog order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// AsTools converts the catalog to the native tool-calling format. Every
// parameter is declared as a string; "required" in the hint marks it required
// in the generated schema.
func (r *Registry) AsTools() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.order))
	for _, d := range r.All() {
		props := make(map[string]any, len(d.Parameters))
		var required []string
		for name, hint := range d.Parameters {
			props[name] = map[string]string{"type": "string", "description": hint}
			if strings.Contains(hint, "required") {
				required = append(required, name)
			}
		}
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		raw, _ := json.Marshal(schema)
		out = append(out, llm.Tool{
			Type: "function",
			Function: llm.Function{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  raw,
			},
		})
	}
	return out
}

// PromptLine renders one catalog entry the way the system prompt advertises
// it, e.g. "get_tasks(status: string, optional: todo | in_progress | done)".
func (d Descriptor) PromptLine() string {
	if len(d.Parameters) == 0 {
		return fmt.Sprintf("- %s(): %s", d.Name, d.Description)
	}
	parts := make([]string, 0, len(d.Parameters))
	for _, name := range sortedKeys(d.Parameters) {
		parts = append(parts, fmt.Sprintf("%s: %s", name, d.Parameters[name]))
	}
	return fmt.Sprintf("- %s(%s): %s", d.Name, strings.Join(parts, ", "), d.Description)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
