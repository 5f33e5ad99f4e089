package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-fklookup/internal/config"
	"github.com/goliatone/go-fklookup/pkg/dom"
	"github.com/goliatone/go-fklookup/pkg/protocol"
	"github.com/goliatone/go-fklookup/pkg/registry"
	"github.com/goliatone/go-fklookup/pkg/transport"
)

func newTestApp(t *testing.T, basePath string) (*app, *httptest.Server) {
	t.Helper()
	cfg := config.Config{
		Server: config.ServerConfig{
			BasePath: basePath,
			Database: fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
			Seed:     true,
			PerPage:  5,
			MaxPages: 10,
		},
	}
	a, err := newApp(cfg, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.close() })
	srv := httptest.NewServer(a.handler)
	t.Cleanup(srv.Close)
	return a, srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	return resp.StatusCode, string(body)
}

func TestFormEmbedsBothWidgets(t *testing.T) {
	_, srv := newTestApp(t, "/admin")

	code, body := get(t, srv.URL+"/admin/form?customer=00002")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	configs, err := registry.FromMarkup(body)
	if err != nil {
		t.Fatalf("from markup: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected two widgets, got %d", len(configs))
	}
	doc, err := dom.ParsePage(body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	customer, _ := doc.Field("customer")
	if customer == nil || customer.Display.Text != "Bolt Inc" || customer.Display.Href != "/admin/customers/00002/" || !customer.HasAdd {
		t.Fatalf("unexpected customer field %+v", customer)
	}
	country, _ := doc.Field("country")
	if country == nil || country.HasAdd {
		t.Fatalf("expected a country field without add window, got %+v", country)
	}
	if _, ok := doc.Field("reference"); !ok {
		t.Fatalf("expected the plain reference field")
	}

	code, body = get(t, srv.URL+"/admin/customers/00002/")
	if code != http.StatusOK || !strings.Contains(body, "Bolt Inc") {
		t.Fatalf("unexpected detail %d %q", code, body)
	}
}

func TestEndpointsServeSeededData(t *testing.T) {
	_, srv := newTestApp(t, "/")
	client, err := transport.NewHTTP(transport.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	var result protocol.Result
	if err := client.GetJSON(context.Background(), "/lookup/customer/resolve?pk=00004", &result); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !result.OK() || result.Display != "Cargo Co" {
		t.Fatalf("unexpected result %+v", result)
	}

	html, err := client.GetHTML(context.Background(), "/lookup/customer/search?ajax_fk_search=lon&page=1")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	fragment, err := dom.ParseFragment(html)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rows := fragment.Rows(); len(rows) != 3 || rows[0].Display != "Acme Ltd" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	var created protocol.Result
	err = client.PostForm(context.Background(), "/lookup/customer/add?_popup=1", map[string][]string{"name": {"Lima Labs"}, "city": {"Oslo"}}, &created)
	if err != nil || created.PK != "00013" {
		t.Fatalf("unexpected create %+v (%v)", created, err)
	}

	if err := client.GetJSON(context.Background(), "/lookup/country/resolve?pk=fr", &result); err != nil || result.Display != "France" {
		t.Fatalf("unexpected country %+v (%v)", result, err)
	}
}

func TestMetricsExposeLookupCounters(t *testing.T) {
	_, srv := newTestApp(t, "/")

	get(t, srv.URL+"/lookup/country/resolve?pk=it")
	code, body := get(t, srv.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	want := `fklookup_requests_total{driver="country",endpoint="resolve",outcome="ok"} 1`
	if !strings.Contains(body, want) {
		t.Fatalf("expected %q in metrics output", want)
	}
	if code, _ := get(t, srv.URL+"/healthz"); code != http.StatusOK {
		t.Fatalf("expected healthy, got %d", code)
	}
}

func TestFormAppliesConfiguredTheme(t *testing.T) {
	cfg := config.Config{
		Server: config.ServerConfig{
			BasePath:     "/admin",
			Database:     "file:TestFormAppliesConfiguredTheme?mode=memory&cache=shared",
			Seed:         true,
			PerPage:      5,
			MaxPages:     10,
			Theme:        "fklookup",
			ThemeVariant: "dark",
		},
	}
	a, err := newApp(cfg, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.close() })
	srv := httptest.NewServer(a.handler)
	t.Cleanup(srv.Close)

	code, body := get(t, srv.URL+"/admin/form")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, want := range []string{
		`href="/admin/assets/fklookup/lookup.css"`,
		`fk-theme-fklookup fk-variant-dark`,
		`--brand: #58a6ff`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in form page", want)
		}
	}

	code, body = get(t, srv.URL+"/admin/assets/fklookup/lookup.css")
	if code != http.StatusOK || !strings.Contains(body, "var(--brand)") {
		t.Fatalf("unexpected stylesheet %d %q", code, body)
	}
}

func TestThemeCatalogRejectsUnknownSelections(t *testing.T) {
	catalog := newThemeCatalog("/assets/fklookup")
	if _, err := catalog.Select("missing", ""); err == nil {
		t.Fatalf("expected unknown theme error")
	}
	if _, err := catalog.Select("", "sepia"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
	sel, err := catalog.Select("", "")
	if err != nil {
		t.Fatalf("select default: %v", err)
	}
	if sel.Theme != defaultTheme || sel.Manifest == nil {
		t.Fatalf("unexpected default selection %+v", sel)
	}
}
