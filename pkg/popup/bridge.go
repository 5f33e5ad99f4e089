// Package popup opens record creation windows for lookup fields and
// reconciles the record a window reports back into the field that opened it.
package popup

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-fklookup/pkg/dom"
	"github.com/goliatone/go-fklookup/pkg/notify"
	"github.com/goliatone/go-fklookup/pkg/protocol"
	"github.com/goliatone/go-fklookup/pkg/registry"
)

// WindowFeatures is the feature string every add window is opened with.
const WindowFeatures = "height=500,width=800,resizable=yes,scrollbars=yes"

// DefaultFinishedLimit is how many completed or cancelled tokens a Bridge
// remembers so late repeats stay silent.
const DefaultFinishedLimit = 256

// PopupURL returns the URL an add window loads for addURL.
func PopupURL(addURL string) string {
	return protocol.PopupURL(addURL)
}

// Changer runs the identifier change path of a field.
type Changer interface {
	IdentifierChanged(field string)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithTokenSource replaces the correlation token generator.
func WithTokenSource(next func() string) Option {
	return func(b *Bridge) {
		if next != nil {
			b.nextToken = next
		}
	}
}

// WithFinishedLimit caps the number of finished tokens remembered. Once the
// cap is reached the oldest token is forgotten first.
func WithFinishedLimit(limit int) Option {
	return func(b *Bridge) {
		if limit > 0 {
			b.finishedLimit = limit
		}
	}
}

type association struct {
	field  string
	window *dom.Window
}

// Bridge tracks open add windows. It must only be used from the event loop
// goroutine.
type Bridge struct {
	doc       *dom.Document
	store     *registry.Store
	changer   Changer
	reporter  *notify.Hook
	logger    *zap.Logger
	nextToken func() string

	pending       map[string]association
	finished      map[string]struct{}
	finishedOrder []string
	finishedLimit int
}

// New constructs a Bridge.
func New(doc *dom.Document, store *registry.Store, changer Changer, reporter *notify.Hook, opts ...Option) *Bridge {
	b := &Bridge{
		doc:       doc,
		store:     store,
		changer:   changer,
		reporter:  reporter,
		logger:    zap.NewNop(),
		nextToken: uuid.NewString,
		pending:       make(map[string]association),
		finished:      make(map[string]struct{}),
		finishedLimit: DefaultFinishedLimit,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Open opens the add window of field. The returned token names the window
// and must be passed back to Complete. Fields without an add URL are ignored.
func (b *Bridge) Open(field string) (string, bool) {
	cfg, ok := b.store.Lookup(field)
	if !ok || !cfg.HasAdd() {
		return "", false
	}
	if _, ok := b.doc.Field(field); !ok {
		return "", false
	}

	token := b.nextToken()
	win, err := b.doc.Open(PopupURL(cfg.AddURL), token, WindowFeatures)
	if err != nil {
		b.logger.Warn("add window failed to open", zap.String("field", field), zap.Error(err))
		b.reporter.Errorf("popup: open add window for %s: %v", field, err)
		return "", false
	}
	b.pending[token] = association{field: field, window: win}
	win.OnClose(func() { b.Closed(token) })
	win.Focus()

	b.logger.Debug("add window opened", zap.String("field", field), zap.String("token", token))
	return token, true
}

// Complete reconciles a created record into the field that opened the window
// named token, then closes the window. Failures are reported, never returned.
// Completing a token twice is a no-op.
func (b *Bridge) Complete(token, newID, newLabel string) {
	if _, done := b.finished[token]; done {
		b.logger.Debug("ignoring repeated popup completion", zap.String("token", token))
		return
	}
	assoc, ok := b.pending[token]
	if !ok {
		b.reporter.Errorf("popup: unknown window %q", token)
		return
	}
	delete(b.pending, token)
	b.finish(token)

	defer assoc.window.Close()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("popup reconciliation panicked", zap.String("field", assoc.field), zap.Any("panic", r))
			b.reporter.Errorf("%v", r)
		}
	}()

	if err := b.reconcile(assoc.field, html.UnescapeString(newID), html.UnescapeString(newLabel)); err != nil {
		b.reporter.Report(err.Error())
	}
}

// Closed forgets the window named token. A window closed without completing
// is a silent cancellation.
func (b *Bridge) Closed(token string) {
	if _, ok := b.pending[token]; !ok {
		return
	}
	delete(b.pending, token)
	b.finish(token)
	b.logger.Debug("add window cancelled", zap.String("token", token))
}

func (b *Bridge) finish(token string) {
	if _, ok := b.finished[token]; ok {
		return
	}
	b.finished[token] = struct{}{}
	b.finishedOrder = append(b.finishedOrder, token)
	for len(b.finishedOrder) > b.finishedLimit {
		delete(b.finished, b.finishedOrder[0])
		b.finishedOrder = b.finishedOrder[1:]
	}
}

// Pending returns the number of open add windows.
func (b *Bridge) Pending() int {
	return len(b.pending)
}

func (b *Bridge) reconcile(name, id, label string) error {
	field, ok := b.doc.Field(name)
	if !ok {
		return fmt.Errorf("popup: field %q is no longer on the page", name)
	}

	kind := registry.TargetDeferred
	if cfg, ok := b.store.Lookup(name); ok && cfg.Target != "" {
		kind = cfg.Target
	}

	switch kind {
	case registry.TargetChoice:
		if field.HasOption(id) {
			field.SetValue(id)
		} else {
			field.AddOption(id, label, true)
		}
	case registry.TargetMultiRaw:
		current := field.Value()
		switch {
		case current == "":
			field.SetValue(id)
		case !listed(current, id):
			field.SetValue(current + "," + id)
		}
	case registry.TargetSimple:
		field.SetValue(id)
	case registry.TargetDeferred:
		field.SetValue(id)
		b.changer.IdentifierChanged(name)
	default:
		return fmt.Errorf("popup: field %q has unsupported target %q", name, kind)
	}
	return nil
}

func listed(values, id string) bool {
	for _, v := range strings.Split(values, ",") {
		if strings.TrimSpace(v) == id {
			return true
		}
	}
	return false
}
