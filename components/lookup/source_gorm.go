package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSource reads records of model T through gorm. Search fields, filters
// and ordering name table columns.
type GormSource[T any] struct {
	DB *gorm.DB
	// PKColumn defaults to "id".
	PKColumn string
	// Describe converts a row into a Record.
	Describe func(T) Record
	// Build creates a row from add form values. Leaving it nil makes the
	// source read only.
	Build func(values map[string]string) (T, error)
}

func (s *GormSource[T]) pkColumn() string {
	if s.PKColumn != "" {
		return s.PKColumn
	}
	return "id"
}

func (s *GormSource[T]) query(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.DB == nil {
		return nil, fmt.Errorf("lookup: gorm source has no database")
	}
	if s.Describe == nil {
		return nil, fmt.Errorf("lookup: gorm source has no Describe func")
	}
	var model T
	return s.DB.WithContext(ctx).Model(&model), nil
}

// Get implements Source.
func (s *GormSource[T]) Get(ctx context.Context, pk string) (Record, error) {
	tx, err := s.query(ctx)
	if err != nil {
		return Record{}, err
	}
	var row T
	err = tx.Where(clause.Eq{Column: clause.Column{Name: s.pkColumn()}, Value: pk}).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("lookup: load %q: %w", pk, err)
	}
	return s.Describe(row), nil
}

// Find implements Source.
func (s *GormSource[T]) Find(ctx context.Context, q Query) (Page, error) {
	tx, err := s.query(ctx)
	if err != nil {
		return Page{}, err
	}

	names := make([]string, 0, len(q.Filters))
	for name := range q.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: name}, Value: q.Filters[name]})
	}

	if len(q.SearchFields) > 0 {
		for _, term := range q.Terms {
			exprs := make([]clause.Expression, 0, len(q.SearchFields))
			for _, field := range q.SearchFields {
				exprs = append(exprs, termExpr(field, term))
			}
			tx = tx.Where(clause.Or(exprs...))
		}
	}

	base := tx.Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return Page{}, fmt.Errorf("lookup: count: %w", err)
	}

	list := base
	for _, key := range q.Ordering {
		name := strings.TrimPrefix(key, "-")
		list = list.Order(clause.OrderByColumn{
			Column: clause.Column{Name: name},
			Desc:   strings.HasPrefix(key, "-"),
		})
	}
	if q.Offset > 0 {
		list = list.Offset(q.Offset)
	}
	if q.Limit > 0 {
		list = list.Limit(q.Limit)
	}
	var rows []T
	if err := list.Find(&rows).Error; err != nil {
		return Page{}, fmt.Errorf("lookup: find: %w", err)
	}

	out := Page{Records: make([]Record, 0, len(rows)), Total: int(total)}
	for _, row := range rows {
		out.Records = append(out.Records, s.Describe(row))
	}
	return out, nil
}

// Create implements Creator.
func (s *GormSource[T]) Create(ctx context.Context, values map[string]string) (Record, error) {
	if s.Build == nil {
		return Record{}, ErrReadOnly
	}
	if s.DB == nil || s.Describe == nil {
		return Record{}, fmt.Errorf("lookup: gorm source is not configured")
	}
	row, err := s.Build(values)
	if err != nil {
		return Record{}, err
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return Record{}, fmt.Errorf("lookup: insert: %w", err)
	}
	return s.Describe(row), nil
}

// CanCreate reports whether Create is available.
func (s *GormSource[T]) CanCreate() bool {
	return s != nil && s.Build != nil
}

func termExpr(field SearchField, term string) clause.Expression {
	column := clause.Column{Name: field.Name}
	lowered := strings.ToLower(term)
	switch field.Match {
	case MatchExact:
		return clause.Expr{SQL: "LOWER(?) = ?", Vars: []any{column, lowered}}
	case MatchPrefix:
		return clause.Expr{SQL: `LOWER(?) LIKE ? ESCAPE '\'`, Vars: []any{column, escapeLike(lowered) + "%"}}
	default:
		return clause.Expr{SQL: `LOWER(?) LIKE ? ESCAPE '\'`, Vars: []any{column, "%" + escapeLike(lowered) + "%"}}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
