package lookup

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// SliceOption configures a SliceSource.
type SliceOption func(*SliceSource)

// WithLabel builds the label of created records from their values. Setting
// it makes the source a Creator.
func WithLabel(label func(values map[string]string) string) SliceOption {
	return func(s *SliceSource) {
		s.label = label
	}
}

// WithRecordURL builds the display link of created records.
func WithRecordURL(url func(pk string) string) SliceOption {
	return func(s *SliceSource) {
		s.url = url
	}
}

// WithKeyWidth zero pads generated keys to width digits.
func WithKeyWidth(width int) SliceOption {
	return func(s *SliceSource) {
		if width > 0 {
			s.keyWidth = width
		}
	}
}

// SliceSource serves records held in memory. It is safe for concurrent use.
type SliceSource struct {
	mu       sync.RWMutex
	records  []Record
	nextKey  int
	keyWidth int
	label    func(map[string]string) string
	url      func(string) string
}

// NewSliceSource copies records into a new source.
func NewSliceSource(records []Record, opts ...SliceOption) *SliceSource {
	s := &SliceSource{records: append([]Record(nil), records...)}
	for _, rec := range records {
		if n, err := strconv.Atoi(rec.PK); err == nil && n > s.nextKey {
			s.nextKey = n
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Get implements Source.
func (s *SliceSource) Get(_ context.Context, pk string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.PK == pk {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

// Find implements Source.
func (s *SliceSource) Find(_ context.Context, q Query) (Page, error) {
	s.mu.RLock()
	matched := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if q.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	sortRecords(matched, q.Ordering)
	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return Page{Records: matched[start:end], Total: total}, nil
}

// Create implements Creator. Keys are assigned sequentially.
func (s *SliceSource) Create(_ context.Context, values map[string]string) (Record, error) {
	if s.label == nil {
		return Record{}, ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextKey++
	pk := strconv.Itoa(s.nextKey)
	if s.keyWidth > 0 {
		pk = fmt.Sprintf("%0*d", s.keyWidth, s.nextKey)
	}
	fields := make(map[string]string, len(values))
	for k, v := range values {
		fields[k] = v
	}
	rec := Record{PK: pk, Display: s.label(values), Fields: fields}
	if s.url != nil {
		rec.URL = s.url(pk)
	}
	s.records = append(s.records, rec)
	return rec, nil
}

// Len returns the number of records.
func (s *SliceSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// CanCreate reports whether Create is available.
func (s *SliceSource) CanCreate() bool {
	return s.label != nil
}
