// Package callback invokes application handlers when a lookup field's value
// changes. Handlers are registered by name up front; a widget config refers to
// one through its OnChange attribute.
package callback

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-fklookup/pkg/protocol"
	"github.com/goliatone/go-fklookup/pkg/registry"
)

// Handler receives the outcome payload of a change on field.
type Handler func(field string, payload protocol.Result)

// Registry maps handler names to handlers. It is built once and read-only
// afterwards.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a registry from handlers keyed by name.
func NewRegistry(handlers map[string]Handler) (*Registry, error) {
	out := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for name, handler := range handlers {
		key := strings.TrimSpace(name)
		if key == "" {
			return nil, fmt.Errorf("callback: empty handler name")
		}
		if handler == nil {
			return nil, fmt.Errorf("callback: handler %q is nil", key)
		}
		if _, exists := out.handlers[key]; exists {
			return nil, fmt.Errorf("callback: duplicate handler %q", key)
		}
		out.handlers[key] = handler
	}
	return out, nil
}

// Handler returns the handler registered as name.
func (r *Registry) Handler(name string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists the registered handler names.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatcher resolves a field's OnChange handler and invokes it.
type Dispatcher struct {
	store    *registry.Store
	handlers *Registry
	logger   *zap.Logger
}

// NewDispatcher constructs a dispatcher. A nil logger disables logging.
func NewDispatcher(store *registry.Store, handlers *Registry, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{store: store, handlers: handlers, logger: logger}
}

// Dispatch invokes the handler configured for field, if any.
func (d *Dispatcher) Dispatch(field string, payload protocol.Result) {
	if d == nil {
		return
	}
	cfg, ok := d.store.Lookup(field)
	if !ok || cfg.OnChange == "" {
		return
	}
	handler, ok := d.handlers.Handler(cfg.OnChange)
	if !ok {
		d.logger.Warn("change handler not registered",
			zap.String("field", field),
			zap.String("handler", cfg.OnChange),
		)
		return
	}
	handler(field, payload)
}
