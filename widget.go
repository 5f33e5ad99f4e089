// Package fklookup wires the foreign-key lookup widget runtime: value
// resolution, the search panel and add windows for every registered field of
// a document, all running on one event loop.
//
// Host events (typing, clicks, key presses, popup completion) enter through
// the Widget methods. Network completions are queued on the event loop and
// applied when the host drains it, so every Widget method and Drain must be
// called from the same goroutine.
package fklookup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-fklookup/pkg/callback"
	"github.com/goliatone/go-fklookup/pkg/dom"
	"github.com/goliatone/go-fklookup/pkg/eventloop"
	"github.com/goliatone/go-fklookup/pkg/notify"
	"github.com/goliatone/go-fklookup/pkg/popup"
	"github.com/goliatone/go-fklookup/pkg/registry"
	"github.com/goliatone/go-fklookup/pkg/resolve"
	"github.com/goliatone/go-fklookup/pkg/search"
	"github.com/goliatone/go-fklookup/pkg/transport"
)

// Option customises a Widget.
type Option func(*settings)

type settings struct {
	logger    *zap.Logger
	callbacks *callback.Registry
	reporter  notify.Reporter
	opener    dom.WindowOpener
	timeout   time.Duration
	loop      *eventloop.Loop
	trusted   bool
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCallbacks registers the change handlers fields refer to by name.
func WithCallbacks(handlers *callback.Registry) Option {
	return func(s *settings) {
		s.callbacks = handlers
	}
}

// WithReporter replaces the default alert based error reporter.
func WithReporter(reporter notify.Reporter) Option {
	return func(s *settings) {
		if reporter != nil {
			s.reporter = reporter
		}
	}
}

// WithOpener decides how add windows are opened.
func WithOpener(opener dom.WindowOpener) Option {
	return func(s *settings) {
		s.opener = opener
	}
}

// WithRequestTimeout bounds resolve requests and panel loads. Zero, the
// default, means no deadline.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		if timeout >= 0 {
			s.timeout = timeout
		}
	}
}

// WithLoop runs the widget on an existing event loop, for hosts driving
// several documents from one goroutine.
func WithLoop(loop *eventloop.Loop) Option {
	return func(s *settings) {
		if loop != nil {
			s.loop = loop
		}
	}
}

// WithTrustedPanels installs search panel fragments without sanitizing them.
func WithTrustedPanels() Option {
	return func(s *settings) {
		s.trusted = true
	}
}

// Widget is the lookup runtime attached to one document.
type Widget struct {
	doc      *dom.Document
	store    *registry.Store
	loop     *eventloop.Loop
	ownsLoop bool
	hook     *notify.Hook
	sync     *resolve.Synchronizer
	search   *search.Controller
	popups   *popup.Bridge
	logger   *zap.Logger
}

// New attaches the widget runtime to doc for the fields in store.
func New(doc *dom.Document, store *registry.Store, client transport.Client, opts ...Option) *Widget {
	cfg := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	w := &Widget{
		doc:    doc,
		store:  store,
		logger: cfg.logger,
	}
	if cfg.loop != nil {
		w.loop = cfg.loop
	} else {
		w.loop = eventloop.New(eventloop.WithLogger(cfg.logger.Named("eventloop")))
		w.ownsLoop = true
	}
	if cfg.opener != nil {
		doc.SetOpener(cfg.opener)
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = notify.Alert(doc)
	}
	w.hook = notify.NewHook(reporter)

	dispatcher := callback.NewDispatcher(store, cfg.callbacks, cfg.logger.Named("callback"))
	w.sync = resolve.New(doc, store, client, w.loop, dispatcher, w.hook,
		resolve.WithRequestTimeout(cfg.timeout),
		resolve.WithLogger(cfg.logger.Named("resolve")),
	)
	searchOpts := []search.Option{
		search.WithRequestTimeout(cfg.timeout),
		search.WithLogger(cfg.logger.Named("search")),
	}
	if cfg.trusted {
		searchOpts = append(searchOpts, search.WithTrustedContent())
	}
	w.search = search.New(doc, store, client, w.loop, w.sync, w.hook, searchOpts...)
	w.popups = popup.New(doc, store, w.sync, w.hook, popup.WithLogger(cfg.logger.Named("popup")))
	return w
}

// Document returns the document the widget drives.
func (w *Widget) Document() *dom.Document { return w.doc }

// Store returns the widget registry.
func (w *Widget) Store() *registry.Store { return w.store }

// SetIdentifier types value into the identifier input of field and fires its
// change event.
func (w *Widget) SetIdentifier(field, value string) {
	f, ok := w.doc.Field(field)
	if !ok {
		return
	}
	f.SetValue(value)
	w.sync.IdentifierChanged(field)
}

// IdentifierChanged fires the change event of field with its current value.
func (w *Widget) IdentifierChanged(field string) {
	w.sync.IdentifierChanged(field)
}

// ToggleSearchPanel shows or hides the search panel of field.
func (w *Widget) ToggleSearchPanel(field string) error {
	return w.search.Toggle(field)
}

// SearchURL returns the search request the panel of field would issue for page.
func (w *Widget) SearchURL(field string, page int) (string, error) {
	return w.search.BuildQueryURL(field, page)
}

// SetFilter types value into a filter input of the search panel.
func (w *Widget) SetFilter(field, name, value string) error {
	return w.search.SetFilter(field, name, value)
}

// Search submits the search panel filters.
func (w *Widget) Search(field string) error {
	return w.search.Search(field)
}

// Paginate follows a pagination link of the search panel.
func (w *Widget) Paginate(field, href string) error {
	return w.search.Paginate(field, href)
}

// KeyPress delivers a key typed into the search panel filters.
func (w *Widget) KeyPress(field, key string) error {
	return w.search.KeyPress(field, key)
}

// ClosePanel activates the close control of the search panel.
func (w *Widget) ClosePanel(field string) error {
	return w.search.Close(field)
}

// SelectResult picks a result row of the search panel.
func (w *Widget) SelectResult(field string, index int) error {
	return w.search.SelectResult(field, index)
}

// OpenAddWindow opens the add window of field and returns its token.
func (w *Widget) OpenAddWindow(field string) (string, bool) {
	return w.popups.Open(field)
}

// DismissAddPopup is the entry point add windows call on completion with the
// identifier and label of the record they created.
func (w *Widget) DismissAddPopup(token, newID, newLabel string) {
	w.popups.Complete(token, newID, newLabel)
}

// PopupClosed tells the widget an add window closed without completing.
func (w *Widget) PopupClosed(token string) {
	w.popups.Closed(token)
}

// PendingPopups returns the number of open add windows.
func (w *Widget) PendingPopups() int {
	return w.popups.Pending()
}

// SetErrorReporter replaces the error reporter.
func (w *Widget) SetErrorReporter(reporter notify.Reporter) {
	w.hook.Set(reporter)
}

// Drain applies network completions until nothing is in flight.
func (w *Widget) Drain(ctx context.Context) error {
	return w.loop.Drain(ctx)
}

// Close stops the event loop when the widget owns it.
func (w *Widget) Close() {
	if w.ownsLoop {
		w.loop.Close()
	}
}
