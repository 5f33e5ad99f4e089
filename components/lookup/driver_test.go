package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fklookup/pkg/protocol"
)

func TestParseSearchField(t *testing.T) {
	cases := map[string]SearchField{
		"name":   {Name: "name", Match: MatchContains},
		"^city":  {Name: "city", Match: MatchPrefix},
		"=code":  {Name: "code", Match: MatchExact},
		"@notes": {Name: "notes", Match: MatchFullText},
		"  ":     {},
	}
	for raw, want := range cases {
		if diff := cmp.Diff(want, ParseSearchField(raw)); diff != "" {
			t.Fatalf("ParseSearchField(%q) mismatch (-want +got):\n%s", raw, diff)
		}
	}
}

func TestQueryMatchesEveryTermOnSomeField(t *testing.T) {
	rec := Record{PK: "1", Display: "Acme Ltd", Fields: map[string]string{"name": "Acme Ltd", "city": "London"}}
	fields := []SearchField{ParseSearchField("name"), ParseSearchField("^city")}

	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"all terms match", Query{Terms: []string{"acme", "lon"}, SearchFields: fields}, true},
		{"prefix only at start", Query{Terms: []string{"don"}, SearchFields: fields}, false},
		{"one term misses", Query{Terms: []string{"acme", "paris"}, SearchFields: fields}, false},
		{"no search fields ignores terms", Query{Terms: []string{"zzz"}}, true},
		{"filter equality", Query{Filters: map[string]string{"city": "London"}}, true},
		{"filter mismatch", Query{Filters: map[string]string{"city": "london"}}, false},
	}
	for _, tc := range tests {
		if got := tc.query.Matches(rec); got != tc.want {
			t.Fatalf("%s: Matches = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDriverResolve(t *testing.T) {
	d := customerDriver()

	got, err := d.Resolve(context.Background(), "00002")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff(protocol.Resolved("00002", "Bolt Inc", "/customers/00002/"), got); diff != "" {
		t.Fatalf("resolve mismatch (-want +got):\n%s", diff)
	}

	missing, err := d.Resolve(context.Background(), "99")
	if err != nil {
		t.Fatalf("resolve missing: %v", err)
	}
	if missing.OK() || missing.Message != "customer not found!" {
		t.Fatalf("unexpected missing payload %+v", missing)
	}
}

func TestDriverSearchPaginatesAndFilters(t *testing.T) {
	d := customerDriver()

	page, err := d.Search(context.Background(), SearchRequest{Text: "acme"}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 2 || len(page.Records) != 2 {
		t.Fatalf("expected two acme records, got %+v", page)
	}
	if page.Records[0].Display != "Acme Holdings" {
		t.Fatalf("expected ordering by name, got %q first", page.Records[0].Display)
	}

	page, err = d.Search(context.Background(), SearchRequest{Page: 3}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 5 || len(page.Records) != 1 || page.Records[0].Display != "Delta Group" {
		t.Fatalf("unexpected third page %+v", page)
	}

	page, err = d.Search(context.Background(), SearchRequest{
		Filters: map[string]string{"city": "new york", "name": "ignored"},
	}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected undeclared filters ignored and city applied, got %+v", page)
	}
}

func TestDriverCreate(t *testing.T) {
	d := customerDriver()
	rec, err := d.Create(context.Background(), map[string]string{"name": "Echo", "city": "rome"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.PK != "00006" || rec.Display != "Echo" || rec.URL != "/customers/00006/" {
		t.Fatalf("unexpected record %+v", rec)
	}

	readOnly := &Driver{Name: "ro", Source: NewSliceSource(nil)}
	if readOnly.CanCreate() {
		t.Fatalf("expected slice source without label to be read only")
	}
	if _, err := readOnly.Create(context.Background(), nil); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}
