package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicateField is returned when two configs share a field name.
	ErrDuplicateField = errors.New("registry: duplicate field")
	// ErrEmptyField is returned when a config has no field name.
	ErrEmptyField = errors.New("registry: empty field name")
)

// Option configures a Store while it is being built.
type Option func(*builder)

type builder struct {
	extra map[string]ExtraParamsFunc
	shown map[string]PanelShownFunc
}

// WithExtraParams attaches an extra query parameter provider to field.
func WithExtraParams(field string, fn ExtraParamsFunc) Option {
	return func(b *builder) {
		if fn == nil {
			return
		}
		b.extra[strings.TrimSpace(field)] = fn
	}
}

// WithPanelShown attaches a hook invoked after the search panel of field loads.
func WithPanelShown(field string, fn PanelShownFunc) Option {
	return func(b *builder) {
		if fn == nil {
			return
		}
		b.shown[strings.TrimSpace(field)] = fn
	}
}

// Store is a read-only collection of widget configurations keyed by field
// name. It is safe for concurrent readers.
type Store struct {
	mu      sync.RWMutex
	entries map[string]WidgetConfig
}

// New validates configs and builds a Store. Hooks supplied through options
// for fields that are not part of configs are rejected.
func New(configs []WidgetConfig, opts ...Option) (*Store, error) {
	b := &builder{
		extra: make(map[string]ExtraParamsFunc),
		shown: make(map[string]PanelShownFunc),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}

	entries := make(map[string]WidgetConfig, len(configs))
	for _, raw := range configs {
		cfg, err := raw.normalise()
		if err != nil {
			return nil, err
		}
		if cfg.Field == "" {
			return nil, ErrEmptyField
		}
		if _, exists := entries[cfg.Field]; exists {
			return nil, fmt.Errorf("%w %q", ErrDuplicateField, cfg.Field)
		}
		if fn, ok := b.extra[cfg.Field]; ok {
			cfg.ExtraParams = fn
		}
		if fn, ok := b.shown[cfg.Field]; ok {
			cfg.OnPanelShown = fn
		}
		entries[cfg.Field] = cfg
	}

	for field := range b.extra {
		if _, ok := entries[field]; !ok {
			return nil, fmt.Errorf("registry: extra params hook for unknown field %q", field)
		}
	}
	for field := range b.shown {
		if _, ok := entries[field]; !ok {
			return nil, fmt.Errorf("registry: panel hook for unknown field %q", field)
		}
	}

	return &Store{entries: entries}, nil
}

// MustNew is like New but panics on invalid configuration.
func MustNew(configs []WidgetConfig, opts ...Option) *Store {
	store, err := New(configs, opts...)
	if err != nil {
		panic(err)
	}
	return store
}

// Lookup returns the configuration registered for field. Unknown fields yield
// the zero config and false.
func (s *Store) Lookup(field string) (WidgetConfig, bool) {
	if s == nil {
		return WidgetConfig{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.entries[field]
	return cfg, ok
}

// Fields returns the registered field names in lexical order.
func (s *Store) Fields() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	out := make([]string, 0, len(s.entries))
	for name := range s.entries {
		out = append(out, name)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Len reports how many fields are registered.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
