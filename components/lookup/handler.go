package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-fklookup/pkg/protocol"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Handler serves every driver endpoint. The driver and endpoint are read from
// the last two path segments, so the handler can be mounted under any prefix.
func (c *Component) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		started := time.Now()

		name, endpoint, ok := splitRoute(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		d, ok := c.Driver(name)
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch endpoint {
		case EndpointResolve, EndpointSearch, EndpointAdd:
		default:
			http.NotFound(w, r)
			return
		}

		if c.opts.Guard != nil {
			if err := c.opts.Guard(r); err != nil {
				c.metrics.observe(name, endpoint, outcomeDenied, started)
				writeGuardError(w, err)
				return
			}
		}

		var outcome string
		switch endpoint {
		case EndpointResolve:
			outcome = c.serveResolve(w, r, d)
		case EndpointSearch:
			outcome = c.serveSearch(w, r, d)
		case EndpointAdd:
			outcome = c.serveAdd(w, r, d)
		}
		c.metrics.observe(name, endpoint, outcome, started)
		c.logger.Debug("lookup request served",
			zap.String("driver", name),
			zap.String("endpoint", endpoint),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", time.Since(started)),
		)
	})
}

func (c *Component) serveResolve(w http.ResponseWriter, r *http.Request, d *Driver) string {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return outcomeInvalid
	}
	pk := strings.TrimSpace(r.URL.Query().Get(protocol.ParamPK))
	result, err := d.Resolve(r.Context(), pk)
	if err != nil {
		c.logger.Warn("resolve failed", zap.String("driver", d.Name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return outcomeError
	}
	writeJSON(w, r, http.StatusOK, result)
	if !result.OK() {
		return outcomeNotFound
	}
	return outcomeOK
}

type filterView struct {
	Name  string
	Label string
	Value string
}

type rowView struct {
	PK      string
	Display string
	URL     string
	Cells   []string
}

type linkView struct {
	Number  string
	Href    string
	Current bool
}

func (c *Component) serveSearch(w http.ResponseWriter, r *http.Request, d *Driver) string {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return outcomeInvalid
	}
	req := parseSearchRequest(r.URL.Query())
	perPage := d.PerPage
	if perPage <= 0 {
		perPage = c.opts.PerPage
	}

	page, err := d.Search(r.Context(), req, perPage)
	if err != nil {
		c.logger.Warn("search failed", zap.String("driver", d.Name), zap.Error(err))
		writeHTML(w, r, http.StatusInternalServerError,
			`<p class="ajax-fk-error">Search failed: `+html.EscapeString(err.Error())+`</p>`)
		return outcomeError
	}
	if req.Page < 1 {
		req.Page = 1
	}

	filters := make([]filterView, 0, len(d.Filters))
	for _, name := range d.Filters {
		filters = append(filters, filterView{
			Name:  protocol.FilterPrefix + name,
			Label: capitalize(strings.ReplaceAll(name, "_", " ")),
			Value: req.Filters[name],
		})
	}
	columns := d.columns()
	rows := make([]rowView, 0, len(page.Records))
	for _, rec := range page.Records {
		row := rowView{PK: rec.PK, Display: rec.Display, URL: rec.URL}
		for _, col := range columns {
			row.Cells = append(row.Cells, rec.Value(col.Field))
		}
		rows = append(rows, row)
	}

	body, err := c.renderer.render(PartialPanel, map[string]any{
		"search_param": protocol.ParamSearch,
		"query":        req.Text,
		"filters":      filters,
		"columns":      columns,
		"rows":         rows,
		"count_label":  countLabel(page.Total),
		"verbose_name": d.verboseName(),
		"links":        pageLinks(req, page.Total, perPage, c.opts.MaxPages),
	})
	if err != nil {
		c.logger.Error("render search panel", zap.String("driver", d.Name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return outcomeError
	}
	writeHTML(w, r, http.StatusOK, body)
	return outcomeOK
}

func (c *Component) serveAdd(w http.ResponseWriter, r *http.Request, d *Driver) string {
	if !d.CanCreate() {
		http.NotFound(w, r)
		return outcomeInvalid
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		body, err := c.renderer.render(PartialAdd, map[string]any{
			"fields":       d.AddFields,
			"verbose_name": d.verboseName(),
		})
		if err != nil {
			c.logger.Error("render add form", zap.String("driver", d.Name), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return outcomeError
		}
		writeHTML(w, r, http.StatusOK, body)
		return outcomeOK
	case http.MethodPost:
	default:
		allowMethods(w, r, http.MethodGet, http.MethodHead, http.MethodPost)
		return outcomeInvalid
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, r, http.StatusBadRequest, protocol.Failed("invalid form: "+err.Error()))
		return outcomeInvalid
	}
	values := make(map[string]string, len(d.AddFields))
	for _, name := range d.AddFields {
		value := strings.TrimSpace(r.PostForm.Get(name))
		if value == "" {
			writeJSON(w, r, http.StatusBadRequest, protocol.Failed(name+" is required"))
			return outcomeInvalid
		}
		values[name] = value
	}

	rec, err := d.Create(r.Context(), values)
	if err != nil {
		c.logger.Warn("create failed", zap.String("driver", d.Name), zap.Error(err))
		writeJSON(w, r, http.StatusBadRequest, protocol.Failed(err.Error()))
		return outcomeError
	}
	c.logger.Info("record created", zap.String("driver", d.Name), zap.String("pk", rec.PK))
	writeJSON(w, r, http.StatusCreated, protocol.Resolved(rec.PK, rec.Display, rec.URL))
	return outcomeOK
}

func parseSearchRequest(query url.Values) SearchRequest {
	req := SearchRequest{
		Text:    strings.TrimSpace(query.Get(protocol.ParamSearch)),
		Page:    parseInt(query.Get(protocol.ParamPage)),
		Filters: make(map[string]string),
	}
	for key, values := range query {
		if !strings.HasPrefix(key, protocol.FilterPrefix) || len(values) == 0 {
			continue
		}
		req.Filters[strings.TrimPrefix(key, protocol.FilterPrefix)] = values[0]
	}
	return req
}

// pageLinks renders at most maxPages links centred on the current page. Links
// carry the search text and filters of req.
func countLabel(total int) string {
	if total == 1 {
		return "1 result"
	}
	return strconv.Itoa(total) + " results"
}

func pageLinks(req SearchRequest, total, perPage, maxPages int) []linkView {
	if perPage <= 0 || total <= perPage {
		return nil
	}
	pages := (total + perPage - 1) / perPage
	current := req.Page
	if current < 1 {
		current = 1
	}

	start := current - maxPages/2
	if start < 1 {
		start = 1
	}
	end := start + maxPages - 1
	if end > pages {
		end = pages
		start = end - maxPages + 1
		if start < 1 {
			start = 1
		}
	}

	base := url.Values{}
	if req.Text != "" {
		base.Set(protocol.ParamSearch, req.Text)
	}
	names := make([]string, 0, len(req.Filters))
	for name := range req.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if req.Filters[name] != "" {
			base.Set(protocol.FilterPrefix+name, req.Filters[name])
		}
	}

	links := make([]linkView, 0, end-start+1)
	for n := start; n <= end; n++ {
		values := url.Values{}
		for k, v := range base {
			values[k] = v
		}
		values.Set(protocol.ParamPage, strconv.Itoa(n))
		links = append(links, linkView{Number: strconv.Itoa(n), Href: "?" + values.Encode(), Current: n == current})
	}
	return links
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeHTML(w http.ResponseWriter, r *http.Request, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = fmt.Fprint(w, body)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
