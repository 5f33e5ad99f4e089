package fklookup_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	fklookup "github.com/goliatone/go-fklookup"
	"github.com/goliatone/go-fklookup/components/lookup"
	"github.com/goliatone/go-fklookup/pkg/callback"
	"github.com/goliatone/go-fklookup/pkg/protocol"
	"github.com/goliatone/go-fklookup/pkg/transport"
)

type harness struct {
	server  *httptest.Server
	widget  *fklookup.Widget
	changes []protocol.Result
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	var records []lookup.Record
	for i, name := range []string{"Acme Ltd", "Bolt Inc", "Acme Holdings"} {
		pk := fmt.Sprintf("%05d", i+1)
		records = append(records, lookup.Record{
			PK:      pk,
			Display: name,
			URL:     "/customers/" + pk + "/",
			Fields:  map[string]string{"name": name},
		})
	}
	component := lookup.New()
	err := component.Register(&lookup.Driver{
		Name: "customer",
		Source: lookup.NewSliceSource(records,
			lookup.WithKeyWidth(5),
			lookup.WithLabel(func(values map[string]string) string { return values["name"] }),
		),
		SearchFields: []string{"name"},
		Ordering:     []string{"name"},
		AddFields:    []string{"name"},
	})
	if err != nil {
		t.Fatalf("register driver: %v", err)
	}

	router := chi.NewRouter()
	if _, err := component.RegisterRoutes(router, "/"); err != nil {
		t.Fatalf("register routes: %v", err)
	}
	router.Get("/form", func(w http.ResponseWriter, r *http.Request) {
		markup, err := component.RenderWidget(r.Context(), lookup.Widget{
			Field:        "customer",
			Driver:       "customer",
			ZeroPadWidth: 5,
			OnChange:     "record",
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "<form>%s</form>", markup)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client, err := transport.NewHTTP(transport.WithBaseURL(srv.URL), transport.WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	markup, err := client.GetHTML(context.Background(), "/form")
	if err != nil {
		t.Fatalf("fetch form: %v", err)
	}
	doc, store, err := fklookup.ParseForm(markup)
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}

	h := &harness{server: srv}
	handlers, err := callback.NewRegistry(map[string]callback.Handler{
		"record": func(_ string, payload protocol.Result) { h.changes = append(h.changes, payload) },
	})
	if err != nil {
		t.Fatalf("callbacks: %v", err)
	}
	h.widget = fklookup.New(doc, store, client, fklookup.WithCallbacks(handlers))
	t.Cleanup(h.widget.Close)
	return h
}

func (h *harness) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.widget.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func (h *harness) field(t *testing.T) (value, display, href string) {
	t.Helper()
	f, ok := h.widget.Document().Field("customer")
	if !ok {
		t.Fatalf("customer field missing")
	}
	return f.Value(), f.Display.Text, f.Display.Href
}

func TestWidgetResolvesTypedIdentifier(t *testing.T) {
	h := newHarness(t)

	h.widget.SetIdentifier("customer", "2")
	h.drain(t)

	value, display, href := h.field(t)
	if value != "00002" || display != "Bolt Inc" || href != "/customers/00002/" {
		t.Fatalf("unexpected field state %q %q %q", value, display, href)
	}
	if diff := cmp.Diff([]protocol.Result{protocol.Resolved("00002", "Bolt Inc", "/customers/00002/")}, h.changes); diff != "" {
		t.Fatalf("callbacks mismatch (-want +got):\n%s", diff)
	}

	h.widget.SetIdentifier("customer", "77")
	h.drain(t)
	value, display, _ = h.field(t)
	if value != "" || display != "" {
		t.Fatalf("expected unknown identifier to clear the field, got %q %q", value, display)
	}
	if diff := cmp.Diff([]string{"customer not found!"}, h.widget.Document().Alerts()); diff != "" {
		t.Fatalf("alerts mismatch (-want +got):\n%s", diff)
	}
}

func TestWidgetSearchAndSelect(t *testing.T) {
	h := newHarness(t)

	if err := h.widget.ToggleSearchPanel("customer"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	h.drain(t)
	f, _ := h.widget.Document().Field("customer")
	if !f.Panel.Visible() || len(f.Panel.Content().Rows()) != 3 {
		t.Fatalf("expected a visible panel with 3 rows")
	}
	if got := h.widget.Document().Focused(); got != "search:customer" {
		t.Fatalf("expected search input focus, got %q", got)
	}

	if err := h.widget.SetFilter("customer", protocol.ParamSearch, "acme"); err != nil {
		t.Fatalf("set filter: %v", err)
	}
	if err := h.widget.KeyPress("customer", "Enter"); err != nil {
		t.Fatalf("key press: %v", err)
	}
	h.drain(t)
	rows := f.Panel.Content().Rows()
	if len(rows) != 2 || rows[0].Display != "Acme Holdings" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	if err := h.widget.SelectResult("customer", 0); err != nil {
		t.Fatalf("select: %v", err)
	}
	value, display, _ := h.field(t)
	if value != "00003" || display != "Acme Holdings" || f.Panel.Visible() {
		t.Fatalf("unexpected state after selection %q %q visible=%v", value, display, f.Panel.Visible())
	}
	if len(h.changes) != 1 || !h.changes[0].OK() {
		t.Fatalf("expected one ok change, got %+v", h.changes)
	}
}

func TestWidgetAddPopup(t *testing.T) {
	h := newHarness(t)

	token, ok := h.widget.OpenAddWindow("customer")
	if !ok {
		t.Fatalf("expected the add window to open")
	}
	windows := h.widget.Document().Windows()
	if len(windows) != 1 || !strings.HasSuffix(windows[0].URL, "/lookup/customer/add?_popup=1") {
		t.Fatalf("unexpected windows %+v", windows)
	}

	resp, err := http.PostForm(h.server.URL+windows[0].URL, url.Values{"name": {"Echo"}})
	if err != nil {
		t.Fatalf("post add form: %v", err)
	}
	defer resp.Body.Close()
	var created protocol.Result
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusCreated || created.PK != "00004" {
		t.Fatalf("unexpected create response %d %+v", resp.StatusCode, created)
	}

	h.widget.DismissAddPopup(token, created.PK.String(), created.Display)
	h.drain(t)

	if !windows[0].Closed() || h.widget.PendingPopups() != 0 {
		t.Fatalf("expected the add window to be closed")
	}
	value, display, _ := h.field(t)
	if value != "00004" || display != "Echo" {
		t.Fatalf("unexpected state %q %q", value, display)
	}

	h.widget.DismissAddPopup(token, "00001", "Acme Ltd")
	h.drain(t)
	if value, _, _ := h.field(t); value != "00004" {
		t.Fatalf("expected repeated completion to be ignored, got %q", value)
	}
}
