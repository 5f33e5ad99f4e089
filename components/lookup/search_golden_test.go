package lookup

import (
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/goliatone/go-fklookup/pkg/dom"
	"github.com/goliatone/go-fklookup/pkg/testsupport"
)

type panelSnapshot struct {
	Filters []dom.Filter
	Rows    []dom.ResultRow
	Pages   []int
	Count   string
}

func snapshotPanel(t *testing.T, body string) panelSnapshot {
	t.Helper()
	frag, err := dom.ParseFragment(body)
	if err != nil {
		t.Fatalf("parse panel: %v", err)
	}
	var snap panelSnapshot
	snap.Filters = frag.Filters()
	snap.Rows = frag.Rows()
	for _, href := range frag.PaginationLinks() {
		page, ok := dom.PageFromHref(href)
		if !ok {
			t.Fatalf("link without page: %q", href)
		}
		snap.Pages = append(snap.Pages, page)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse panel: %v", err)
	}
	snap.Count = doc.Find(".ajax-fk-count").Text()
	return snap
}

func TestSearchPanelGolden(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		golden string
	}{
		{name: "city filter", query: "ajax-fk-filter-city=london", golden: "search_city_london.json"},
		{name: "text search first page", query: "ajax_fk_search=o&page=1", golden: "search_text_o.json"},
		{name: "no match", query: "ajax_fk_search=zulu", golden: "search_no_match.json"},
	}

	c := newComponent(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(c, http.MethodGet, "/lookup/customer/search?"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			got := snapshotPanel(t, rec.Body.String())

			path := filepath.Join("testdata", tt.golden)
			testsupport.WriteGolden(t, path, got)

			var want panelSnapshot
			testsupport.MustReadGoldenJSON(t, path, &want)
			if diff := testsupport.CompareGolden(want, got); diff != "" {
				t.Fatalf("panel mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
