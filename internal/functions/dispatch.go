package functions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vea-app/vea/internal/types"
)

// Result is the uniform envelope returned by Dispatch. Exactly one of Data
// and Error is populated.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler executes one catalog function against the data layer, scoped to
// the acting identity's organization.
type Handler func(ctx context.Context, params map[string]string, identity types.Identity) (any, error)

// Dispatcher validates function calls against the registry and routes them
// to the bound handler. It never lets a handler error escape the envelope.
type Dispatcher struct {
	registry *Registry
	handlers map[string]Handler
}

// NewDispatcher creates a dispatcher with handlers bound over the given
// data store. Every catalog entry gets a handler; a registry entry without
// one is a programming error surfaced at construction.
func NewDispatcher(registry *Registry, store types.DataStore) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		handlers: buildHandlers(store),
	}
	for _, desc := range registry.All() {
		if _, ok := d.handlers[desc.Name]; !ok {
			panic(fmt.Sprintf("functions: no handler bound for %q", desc.Name))
		}
	}
	return d
}

// Dispatch looks up name, invokes its handler, and wraps the outcome in the
// envelope. Unknown names and handler failures are soft errors; Dispatch
// never returns a Go error to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params map[string]string, identity types.Identity) Result {
	if _, ok := d.registry.Get(name); !ok {
		return Result{Success: false, Error: fmt.Sprintf("Unknown function: %s", name)}
	}

	handler := d.handlers[name]
	data, err := handler(ctx, params, identity)
	if err != nil {
		slog.Warn("function handler failed", "function", name, "org_id", identity.OrgID, "error", err)
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true, Data: data}
}
