package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/goliatone/go-fklookup/pkg/protocol"
)

var (
	// ErrNotFound is returned by sources when no record has the requested key.
	ErrNotFound = errors.New("lookup: record not found")
	// ErrReadOnly is returned when creating records on a source that cannot.
	ErrReadOnly = errors.New("lookup: source cannot create records")
)

// Record is one row a driver exposes.
type Record struct {
	PK      string
	Display string
	URL     string
	Fields  map[string]string
}

// Value returns the named attribute. "pk" and "display" address the key and
// label unless Fields defines them.
func (r Record) Value(name string) string {
	if v, ok := r.Fields[name]; ok {
		return v
	}
	switch name {
	case "pk":
		return r.PK
	case "display":
		return r.Display
	}
	return ""
}

// MatchKind selects how a search term is compared with a field.
type MatchKind string

const (
	MatchContains MatchKind = "icontains"
	MatchPrefix   MatchKind = "istartswith"
	MatchExact    MatchKind = "iexact"
	// MatchFullText is served as MatchContains by the bundled sources.
	MatchFullText MatchKind = "search"
)

// SearchField is a field searched by free text terms.
type SearchField struct {
	Name  string
	Match MatchKind
}

// ParseSearchField reads the prefix notation: "^name" starts with, "=name"
// equals, "@name" full text, plain names contain. Matching ignores case.
func ParseSearchField(raw string) SearchField {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SearchField{}
	}
	switch raw[0] {
	case '^':
		return SearchField{Name: raw[1:], Match: MatchPrefix}
	case '=':
		return SearchField{Name: raw[1:], Match: MatchExact}
	case '@':
		return SearchField{Name: raw[1:], Match: MatchFullText}
	}
	return SearchField{Name: raw, Match: MatchContains}
}

// Matches reports whether value satisfies term under the field's match kind.
func (f SearchField) Matches(value, term string) bool {
	value = strings.ToLower(value)
	term = strings.ToLower(term)
	switch f.Match {
	case MatchPrefix:
		return strings.HasPrefix(value, term)
	case MatchExact:
		return value == term
	default:
		return strings.Contains(value, term)
	}
}

// Query is what a source needs to answer a search request.
type Query struct {
	// Terms must each match at least one of SearchFields.
	Terms        []string
	SearchFields []SearchField
	// Filters require equality on the named fields.
	Filters map[string]string
	// Ordering lists field names, "-" prefixed for descending order.
	Ordering []string
	Offset   int
	Limit    int
}

// Matches applies the query filters and terms to rec.
func (q Query) Matches(rec Record) bool {
	for name, value := range q.Filters {
		if rec.Value(name) != value {
			return false
		}
	}
	if len(q.SearchFields) == 0 {
		return true
	}
	for _, term := range q.Terms {
		matched := false
		for _, field := range q.SearchFields {
			if field.Matches(rec.Value(field.Name), term) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Page is one page of search results.
type Page struct {
	Records []Record
	Total   int
}

// Source reads the records of one model.
type Source interface {
	Get(ctx context.Context, pk string) (Record, error)
	Find(ctx context.Context, q Query) (Page, error)
}

// Creator is implemented by sources that can add records.
type Creator interface {
	Create(ctx context.Context, values map[string]string) (Record, error)
}

// Column is a result table column.
type Column struct {
	Field string
	Label string
}

// Driver exposes one model to lookup widgets.
type Driver struct {
	// Name is the URL segment of the driver endpoints.
	Name string
	// VerboseName is the human name of the model, used in messages.
	VerboseName string
	Source      Source
	// SearchFields are searched by the free text box, in prefix notation.
	SearchFields []string
	// ListDisplay are the result table columns. Defaults to the record label.
	ListDisplay []Column
	// Filters are fields offered as equality filters in the panel.
	Filters  []string
	Ordering []string
	PerPage  int
	// AddFields are the values requested when creating a record.
	AddFields []string
}

func (d *Driver) validate() error {
	if d == nil {
		return fmt.Errorf("lookup: nil driver")
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("lookup: driver name is required")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return fmt.Errorf("lookup: driver name %q must be a single path segment", name)
		}
	}
	if d.Source == nil {
		return fmt.Errorf("lookup: driver %q has no source", name)
	}
	return nil
}

func (d *Driver) verboseName() string {
	if d.VerboseName != "" {
		return d.VerboseName
	}
	return d.Name
}

func (d *Driver) columns() []Column {
	if len(d.ListDisplay) > 0 {
		return d.ListDisplay
	}
	return []Column{{Field: "display", Label: capitalize(d.verboseName())}}
}

func (d *Driver) searchFields() []SearchField {
	out := make([]SearchField, 0, len(d.SearchFields))
	for _, raw := range d.SearchFields {
		field := ParseSearchField(raw)
		if field.Name == "" {
			continue
		}
		out = append(out, field)
	}
	return out
}

// CanCreate reports whether the driver's source can add records.
func (d *Driver) CanCreate() bool {
	if _, ok := d.Source.(Creator); !ok {
		return false
	}
	if c, ok := d.Source.(interface{ CanCreate() bool }); ok {
		return c.CanCreate()
	}
	return true
}

// Resolve looks up pk and builds the resolution payload.
func (d *Driver) Resolve(ctx context.Context, pk string) (protocol.Result, error) {
	rec, err := d.Source.Get(ctx, pk)
	if errors.Is(err, ErrNotFound) {
		return protocol.Failed(fmt.Sprintf("%s not found!", d.verboseName())), nil
	}
	if err != nil {
		return protocol.Result{}, fmt.Errorf("lookup: resolve %s %q: %w", d.Name, pk, err)
	}
	return protocol.Resolved(rec.PK, rec.Display, rec.URL), nil
}

// SearchRequest is a parsed search panel request.
type SearchRequest struct {
	Text    string
	Filters map[string]string
	Page    int
}

// Search runs req against the source.
func (d *Driver) Search(ctx context.Context, req SearchRequest, perPage int) (Page, error) {
	if d.PerPage > 0 {
		perPage = d.PerPage
	}
	if perPage <= 0 {
		perPage = 10
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	filters := make(map[string]string)
	for _, name := range d.Filters {
		if value := req.Filters[name]; value != "" {
			filters[name] = value
		}
	}

	q := Query{
		Terms:        strings.Fields(req.Text),
		SearchFields: d.searchFields(),
		Filters:      filters,
		Ordering:     append([]string(nil), d.Ordering...),
		Offset:       (page - 1) * perPage,
		Limit:        perPage,
	}
	result, err := d.Source.Find(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("lookup: search %s: %w", d.Name, err)
	}
	return result, nil
}

// Create adds a record from values when the source supports it.
func (d *Driver) Create(ctx context.Context, values map[string]string) (Record, error) {
	if !d.CanCreate() {
		return Record{}, ErrReadOnly
	}
	rec, err := d.Source.(Creator).Create(ctx, values)
	if err != nil {
		return Record{}, fmt.Errorf("lookup: create %s: %w", d.Name, err)
	}
	return rec, nil
}

// sortRecords orders records in place following ordering.
func sortRecords(records []Record, ordering []string) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, key := range ordering {
			desc := strings.HasPrefix(key, "-")
			name := strings.TrimPrefix(key, "-")
			a, b := records[i].Value(name), records[j].Value(name)
			if a == b {
				continue
			}
			if desc {
				return a > b
			}
			return a < b
		}
		return false
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
