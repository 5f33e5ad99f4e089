// Package search drives a lookup field's search panel: it builds query URLs
// from the panel's filter inputs, loads result fragments and reacts to the
// controls those fragments expose.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-fklookup/pkg/dom"
	"github.com/goliatone/go-fklookup/pkg/eventloop"
	"github.com/goliatone/go-fklookup/pkg/notify"
	"github.com/goliatone/go-fklookup/pkg/protocol"
	"github.com/goliatone/go-fklookup/pkg/registry"
	"github.com/goliatone/go-fklookup/pkg/transport"
)

// Keys handled by KeyPress.
const (
	KeyEnter  = "Enter"
	KeyEscape = "Escape"
)

var (
	// ErrNotRegistered is returned for fields without a widget config.
	ErrNotRegistered = errors.New("search: field is not registered")
	// ErrNoPanel is returned for fields that carry no search panel.
	ErrNoPanel = errors.New("search: field has no search panel")
	// ErrNoSuchRow is returned when selecting a row the panel does not show.
	ErrNoSuchRow = errors.New("search: no such result row")
	// ErrUnknownFilter is returned when setting a filter the panel lacks.
	ErrUnknownFilter = errors.New("search: unknown filter")
	// ErrNoPage is returned for pagination links without a page token.
	ErrNoPage = errors.New("search: link has no page")
)

// Resolver applies a selection as if it had been resolved.
type Resolver interface {
	Apply(field string, result protocol.Result)
}

// Option configures a Controller.
type Option func(*Controller)

// WithRequestTimeout bounds each panel load. Zero means no deadline.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTrustedContent installs fragments without sanitizing them.
func WithTrustedContent() Option {
	return func(c *Controller) {
		c.parse = dom.ParseTrustedFragment
	}
}

// Controller is the search and pagination controller. It must only be used
// from the event loop goroutine.
type Controller struct {
	doc      *dom.Document
	store    *registry.Store
	client   transport.Client
	loop     *eventloop.Loop
	resolver Resolver
	reporter *notify.Hook
	timeout  time.Duration
	parse    func(string) (*dom.Fragment, error)
	logger   *zap.Logger

	seq map[string]uint64
}

// New constructs a Controller.
func New(doc *dom.Document, store *registry.Store, client transport.Client, loop *eventloop.Loop, resolver Resolver, reporter *notify.Hook, opts ...Option) *Controller {
	c := &Controller{
		doc:      doc,
		store:    store,
		client:   client,
		loop:     loop,
		resolver: resolver,
		reporter: reporter,
		parse:    dom.ParseFragment,
		logger:   zap.NewNop(),
		seq:      make(map[string]uint64),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// BuildQueryURL returns the search URL for field: the named, non-empty filter
// inputs of the current panel content, the page when page > 0, then the extra
// parameters of the field config in key order.
func (c *Controller) BuildQueryURL(field string, page int) (string, error) {
	cfg, ok := c.store.Lookup(field)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotRegistered, field)
	}

	var params []string
	if f, ok := c.doc.Field(field); ok && f.Panel != nil {
		for _, filter := range f.Panel.Content().Filters() {
			if filter.Value == "" {
				continue
			}
			if page > 0 && filter.Name == protocol.ParamPage {
				continue
			}
			params = append(params, filter.Name+"="+protocol.EscapeValue(filter.Value))
		}
	}
	if page > 0 {
		params = append(params, protocol.ParamPage+"="+strconv.Itoa(page))
	}
	if cfg.ExtraParams != nil {
		extra := cfg.ExtraParams(field)
		keys := make([]string, 0, len(extra))
		for key := range extra {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if key == "" || (page > 0 && key == protocol.ParamPage) {
				continue
			}
			params = append(params, key+"="+protocol.EscapeValue(extra[key]))
		}
	}

	if len(params) == 0 {
		return cfg.SearchURL, nil
	}
	return cfg.SearchURL + protocol.Separator(cfg.SearchURL) + strings.Join(params, "&"), nil
}

// Toggle flips the panel visibility. A panel becoming visible loads page 1.
func (c *Controller) Toggle(field string) error {
	panel, err := c.panel(field)
	if err != nil {
		return err
	}
	if panel.Visible() {
		c.hide(field, panel)
		return nil
	}
	panel.Show()
	return c.loadPage(field, 1)
}

// Load fetches url into the panel of field.
func (c *Controller) Load(field, url string) error {
	if _, err := c.panel(field); err != nil {
		return err
	}
	page, ok := dom.PageFromHref(url)
	if !ok {
		page = 1
	}
	c.load(field, url, page)
	return nil
}

// Search reloads page 1 with the current filters.
func (c *Controller) Search(field string) error {
	if _, err := c.panel(field); err != nil {
		return err
	}
	return c.loadPage(field, 1)
}

// Paginate follows a pagination link. Filters are read from the panel as it
// is now, not from the request that produced the link.
func (c *Controller) Paginate(field, href string) error {
	if _, err := c.panel(field); err != nil {
		return err
	}
	page, ok := dom.PageFromHref(href)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoPage, href)
	}
	return c.loadPage(field, page)
}

// KeyPress handles a key typed into the panel filter inputs. Enter searches,
// Escape closes the panel and focuses the identifier input. Other keys are
// ignored.
func (c *Controller) KeyPress(field, key string) error {
	switch key {
	case KeyEnter:
		return c.Search(field)
	case KeyEscape:
		if err := c.Close(field); err != nil {
			return err
		}
		c.doc.Focus(dom.FieldFocus(field))
	}
	return nil
}

// Close hides the panel. Loads still in flight are discarded.
func (c *Controller) Close(field string) error {
	panel, err := c.panel(field)
	if err != nil {
		return err
	}
	c.hide(field, panel)
	return nil
}

// SetFilter types value into the named filter input of the panel.
func (c *Controller) SetFilter(field, name, value string) error {
	panel, err := c.panel(field)
	if err != nil {
		return err
	}
	if !panel.Content().SetFilter(name, value) {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return nil
}

// SelectResult picks the result row at index (zero based). The row's
// identifier, label and link are applied like a successful resolution and
// the panel is hidden before the change callback runs.
func (c *Controller) SelectResult(field string, index int) error {
	panel, err := c.panel(field)
	if err != nil {
		return err
	}
	rows := panel.Content().Rows()
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: %d of %d", ErrNoSuchRow, index, len(rows))
	}
	row := rows[index]
	c.hide(field, panel)
	c.resolver.Apply(field, protocol.Resolved(row.PK, row.Display, row.URL))
	return nil
}

func (c *Controller) loadPage(field string, page int) error {
	url, err := c.BuildQueryURL(field, page)
	if err != nil {
		return err
	}
	c.load(field, url, page)
	return nil
}

func (c *Controller) load(field, url string, page int) {
	c.seq[field]++
	seq := c.seq[field]
	c.logger.Debug("loading search panel",
		zap.String("field", field),
		zap.String("url", url),
		zap.Int("page", page),
	)

	c.loop.Go(context.Background(), func(ctx context.Context) func() {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		body, err := c.client.GetHTML(ctx, url)
		var fragment *dom.Fragment
		if err == nil {
			fragment, err = c.parse(body)
		}
		return func() {
			c.install(field, seq, page, fragment, err)
		}
	})
}

func (c *Controller) install(field string, seq uint64, page int, fragment *dom.Fragment, err error) {
	if seq != c.seq[field] {
		c.logger.Debug("discarding stale panel load",
			zap.String("field", field),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", c.seq[field]),
		)
		return
	}
	f, ok := c.doc.Field(field)
	if !ok || f.Panel == nil {
		return
	}
	if err != nil {
		c.logger.Warn("search panel load failed", zap.String("field", field), zap.Error(err))
		c.reporter.Report(err.Error())
		return
	}

	f.Panel.SetContent(fragment)
	f.Panel.SetPage(page)

	if cfg, ok := c.store.Lookup(field); ok && cfg.OnPanelShown != nil {
		cfg.OnPanelShown(field)
	}
	if fragment.HasSearchInput() {
		c.doc.Focus(dom.SearchFocus(field))
	}
}

func (c *Controller) hide(field string, panel *dom.Panel) {
	c.seq[field]++
	panel.Hide()
}

func (c *Controller) panel(field string) (*dom.Panel, error) {
	if _, ok := c.store.Lookup(field); !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, field)
	}
	f, ok := c.doc.Field(field)
	if !ok || f.Panel == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoPanel, field)
	}
	return f.Panel, nil
}
