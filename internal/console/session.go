package console

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	fklookup "github.com/goliatone/go-fklookup"
	"github.com/goliatone/go-fklookup/pkg/dom"
	"github.com/goliatone/go-fklookup/pkg/protocol"
)

// Forms fetches and submits the add window form.
type Forms interface {
	GetHTML(ctx context.Context, rawURL string) (string, error)
	PostForm(ctx context.Context, rawURL string, values url.Values, out any) error
}

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDrainTimeout bounds how long the session waits for network
// completions after each action.
func WithDrainTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		if timeout > 0 {
			s.drainTimeout = timeout
		}
	}
}

// Session is an interactive terminal host for one widget.
type Session struct {
	widget       *fklookup.Widget
	prompts      PromptDriver
	forms        Forms
	logger       *zap.Logger
	drainTimeout time.Duration
	alertsSeen   int
}

// NewSession builds a session for widget.
func NewSession(widget *fklookup.Widget, prompts PromptDriver, forms Forms, opts ...Option) *Session {
	s := &Session{
		widget:       widget,
		prompts:      prompts,
		forms:        forms,
		logger:       zap.NewNop(),
		drainTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

type action struct {
	label string
	run   func(ctx context.Context) error
}

var errQuit = errors.New("quit")

// Run loops over user actions until the user quits or aborts.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := s.render(ctx); err != nil {
			return err
		}
		actions := s.mainActions()
		choice, err := s.choose(ctx, "Action", actions)
		if err != nil {
			return s.finish(err)
		}
		if err := actions[choice].run(ctx); err != nil {
			return s.finish(err)
		}
	}
}

func (s *Session) finish(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, ErrAborted) {
		return nil
	}
	return err
}

func (s *Session) mainActions() []action {
	var actions []action
	for _, name := range s.lookupFields() {
		field := name
		actions = append(actions,
			action{label: field + ": type identifier", run: func(ctx context.Context) error { return s.typeIdentifier(ctx, field) }},
			action{label: field + ": search", run: func(ctx context.Context) error { return s.searchLoop(ctx, field) }},
		)
		if cfg, ok := s.widget.Store().Lookup(field); ok && cfg.HasAdd() {
			actions = append(actions, action{label: field + ": add new", run: func(ctx context.Context) error { return s.add(ctx, field) }})
		}
	}
	return append(actions, action{label: "Quit", run: func(context.Context) error { return errQuit }})
}

func (s *Session) lookupFields() []string {
	var out []string
	for _, name := range s.widget.Store().Fields() {
		if _, ok := s.widget.Document().Field(name); ok {
			out = append(out, name)
		}
	}
	return out
}

func (s *Session) choose(ctx context.Context, message string, actions []action) (int, error) {
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = a.label
	}
	idx, err := s.prompts.Select(ctx, SelectConfig{Message: message, Options: labels, PageSize: 15})
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(actions) {
		return 0, fmt.Errorf("console: invalid choice %d", idx)
	}
	return idx, nil
}

// render prints every lookup field and the alerts raised since the last call.
func (s *Session) render(ctx context.Context) error {
	var b strings.Builder
	for _, name := range s.lookupFields() {
		field, _ := s.widget.Document().Field(name)
		label := dom.NoneSelected
		if field.Display != nil && field.Display.Text != "" {
			label = field.Display.Text
		}
		fmt.Fprintf(&b, "%s = %q  %s\n", name, field.Value(), label)
	}
	alerts := s.widget.Document().Alerts()
	for _, msg := range alerts[min(s.alertsSeen, len(alerts)):] {
		fmt.Fprintf(&b, "! %s\n", msg)
	}
	s.alertsSeen = len(alerts)
	return s.prompts.Info(ctx, strings.TrimRight(b.String(), "\n"))
}

func (s *Session) drain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.drainTimeout)
	defer cancel()
	return s.widget.Drain(ctx)
}

func (s *Session) typeIdentifier(ctx context.Context, field string) error {
	f, _ := s.widget.Document().Field(field)
	value, err := s.prompts.Input(ctx, InputConfig{
		Message: field + " identifier",
		Default: f.Value(),
		Help:    "Leave empty to clear the selection",
	})
	if err != nil {
		return err
	}
	s.widget.SetIdentifier(field, strings.TrimSpace(value))
	return s.drain(ctx)
}

func (s *Session) searchLoop(ctx context.Context, field string) error {
	if err := s.widget.ToggleSearchPanel(field); err != nil {
		return err
	}
	if err := s.drain(ctx); err != nil {
		return err
	}
	for {
		f, _ := s.widget.Document().Field(field)
		if f.Panel == nil || !f.Panel.Visible() {
			return nil
		}
		if err := s.render(ctx); err != nil {
			return err
		}
		content := f.Panel.Content()
		if text := content.Text(); len(content.Rows()) == 0 && text != "" {
			if err := s.prompts.Info(ctx, text); err != nil {
				return err
			}
		}
		actions := s.panelActions(field, content)
		choice, err := s.choose(ctx, fmt.Sprintf("%s search (page %d)", field, f.Panel.Page()), actions)
		if err != nil {
			return err
		}
		if err := actions[choice].run(ctx); err != nil {
			return err
		}
	}
}

func (s *Session) panelActions(field string, content *dom.Fragment) []action {
	var actions []action
	for i, row := range content.Rows() {
		index := i
		label := row.Display
		if len(row.Cells) > 0 {
			label = strings.Join(row.Cells, " | ")
		}
		actions = append(actions, action{label: "Pick: " + label, run: func(ctx context.Context) error {
			if err := s.widget.SelectResult(field, index); err != nil {
				return err
			}
			return s.drain(ctx)
		}})
	}
	if content.HasSearchInput() || len(content.Filters()) > 0 {
		actions = append(actions, action{label: "Refine filters", run: func(ctx context.Context) error { return s.refine(ctx, field) }})
	}
	for _, href := range content.PaginationLinks() {
		link := href
		page, ok := dom.PageFromHref(link)
		if !ok {
			continue
		}
		actions = append(actions, action{label: fmt.Sprintf("Go to page %d", page), run: func(ctx context.Context) error {
			if err := s.widget.Paginate(field, link); err != nil {
				return err
			}
			return s.drain(ctx)
		}})
	}
	return append(actions, action{label: "Close panel", run: func(context.Context) error { return s.widget.ClosePanel(field) }})
}

func (s *Session) refine(ctx context.Context, field string) error {
	f, _ := s.widget.Document().Field(field)
	for _, filter := range f.Panel.Content().Filters() {
		message := strings.TrimPrefix(filter.Name, protocol.FilterPrefix)
		if filter.Name == protocol.ParamSearch {
			message = "search"
		}
		value, err := s.prompts.Input(ctx, InputConfig{Message: message, Default: filter.Value})
		if err != nil {
			return err
		}
		if err := s.widget.SetFilter(field, filter.Name, value); err != nil {
			return err
		}
	}
	if err := s.widget.KeyPress(field, "Enter"); err != nil {
		return err
	}
	return s.drain(ctx)
}

// add plays the add window: it opens it, fills the creation form served at
// its URL and completes the popup with the created record.
func (s *Session) add(ctx context.Context, field string) error {
	token, ok := s.widget.OpenAddWindow(field)
	if !ok {
		return s.prompts.Info(ctx, field+" has no add window")
	}
	win := s.window(token)
	if win == nil {
		return fmt.Errorf("console: window %q was not opened", token)
	}

	markup, err := s.forms.GetHTML(ctx, win.URL)
	if err != nil {
		win.Close()
		return s.prompts.Info(ctx, "could not load the add form: "+err.Error())
	}
	form, err := dom.ParsePage(markup)
	if err != nil {
		win.Close()
		return err
	}

	values := url.Values{}
	for _, name := range form.Fields() {
		input, _ := form.Field(name)
		if input.Hidden {
			values.Set(name, input.Value())
			continue
		}
		answer, err := s.prompts.Input(ctx, InputConfig{Message: name, Default: input.Value()})
		if err != nil {
			win.Close()
			return err
		}
		values.Set(name, answer)
	}

	create, err := s.prompts.Confirm(ctx, ConfirmConfig{Message: "Create " + field + "?", Default: true})
	if err != nil {
		win.Close()
		return err
	}
	if !create {
		win.Close()
		if err := s.prompts.Info(ctx, "add cancelled"); err != nil {
			return err
		}
		return s.drain(ctx)
	}

	var result protocol.Result
	if err := s.forms.PostForm(ctx, win.URL, values, &result); err != nil {
		win.Close()
		return s.prompts.Info(ctx, "could not create the record: "+err.Error())
	}
	if !result.OK() {
		win.Close()
		return s.prompts.Info(ctx, "could not create the record: "+result.Message)
	}
	s.logger.Debug("record created in add window", zap.String("field", field), zap.String("pk", result.PK.String()))
	s.widget.DismissAddPopup(token, result.PK.String(), result.Display)
	return s.drain(ctx)
}

func (s *Session) window(token string) *dom.Window {
	windows := s.widget.Document().Windows()
	for i := len(windows) - 1; i >= 0; i-- {
		if windows[i].Name == token {
			return windows[i]
		}
	}
	return nil
}
