// Package resolve keeps a lookup field's identifier and display label in sync.
//
// When an identifier changes the synchronizer pads it, asks the resolve
// endpoint for the record label and applies the answer. Each field carries a
// sequence number: only the response to the latest request issued for a field
// is applied, older responses are dropped.
package resolve

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/goliatone/go-fklookup/pkg/callback"
	"github.com/goliatone/go-fklookup/pkg/dom"
	"github.com/goliatone/go-fklookup/pkg/eventloop"
	"github.com/goliatone/go-fklookup/pkg/notify"
	"github.com/goliatone/go-fklookup/pkg/protocol"
	"github.com/goliatone/go-fklookup/pkg/registry"
	"github.com/goliatone/go-fklookup/pkg/transport"
)

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithRequestTimeout bounds each resolve request. Zero means no deadline.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Synchronizer) {
		if timeout >= 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Synchronizer is the value synchronizer. It must only be used from the event
// loop goroutine.
type Synchronizer struct {
	doc        *dom.Document
	store      *registry.Store
	client     transport.Client
	loop       *eventloop.Loop
	dispatcher *callback.Dispatcher
	reporter   *notify.Hook
	timeout    time.Duration
	logger     *zap.Logger

	seq map[string]uint64
}

// New constructs a Synchronizer.
func New(doc *dom.Document, store *registry.Store, client transport.Client, loop *eventloop.Loop, dispatcher *callback.Dispatcher, reporter *notify.Hook, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		doc:        doc,
		store:      store,
		client:     client,
		loop:       loop,
		dispatcher: dispatcher,
		reporter:   reporter,
		logger:     zap.NewNop(),
		seq:        make(map[string]uint64),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Pad left-pads value with '0' up to width characters. Longer values are
// returned unchanged.
func Pad(value string, width int) string {
	missing := width - utf8.RuneCountInString(value)
	if missing <= 0 {
		return value
	}
	return strings.Repeat("0", missing) + value
}

// IdentifierChanged reacts to a new identifier in field.
func (s *Synchronizer) IdentifierChanged(name string) {
	field, ok := s.doc.Field(name)
	if !ok {
		return
	}

	value := field.Value()
	if value == "" {
		s.seq[name]++
		if field.Display != nil {
			field.Display.Clear()
		}
		s.dispatcher.Dispatch(name, protocol.Cleared())
		return
	}

	cfg, ok := s.store.Lookup(name)
	padded := Pad(value, cfg.ZeroPadWidth)
	field.SetValue(padded)

	if !ok || cfg.ResolveURL == "" {
		s.logger.Debug("resolve skipped: no resolve url", zap.String("field", name))
		return
	}

	s.seq[name]++
	seq := s.seq[name]
	target := protocol.ResolveURL(cfg.ResolveURL, padded)
	s.logger.Debug("resolving identifier",
		zap.String("field", name),
		zap.String("pk", padded),
		zap.Uint64("seq", seq),
	)

	s.loop.Go(context.Background(), func(ctx context.Context) func() {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		var result protocol.Result
		err := s.client.GetJSON(ctx, target, &result)
		return func() {
			s.apply(name, seq, padded, result, err)
		}
	})
}

// Apply writes a resolution payload into field as if it had been returned by
// the resolve endpoint, including the change dispatch. It invalidates any
// request still in flight for the field.
func (s *Synchronizer) Apply(name string, result protocol.Result) {
	s.seq[name]++
	s.apply(name, s.seq[name], "", result, nil)
}

// Latest returns the sequence number of the last request issued for field.
func (s *Synchronizer) Latest(name string) uint64 {
	return s.seq[name]
}

func (s *Synchronizer) apply(name string, seq uint64, pk string, result protocol.Result, err error) {
	if seq != s.seq[name] {
		s.logger.Debug("discarding stale resolution",
			zap.String("field", name),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", s.seq[name]),
		)
		return
	}
	field, ok := s.doc.Field(name)
	if !ok {
		return
	}

	if err != nil {
		s.logger.Warn("resolve request failed", zap.String("field", name), zap.Error(err))
		result = protocol.Failed(err.Error())
	}

	if result.OK() {
		if result.PK != "" && pk == "" {
			field.SetValue(result.PK.String())
		}
		if field.Display != nil {
			field.Display.Text = result.Display
			field.Display.Href = result.URL
		}
	} else {
		message := result.Message
		if message == "" {
			message = "could not resolve " + pk
		}
		s.reporter.Report(message)
		field.SetValue("")
		if field.Display != nil {
			field.Display.Clear()
		}
		s.doc.Focus(dom.FieldFocus(name))
	}

	s.dispatcher.Dispatch(name, result)
}
