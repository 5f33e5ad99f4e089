package fklookup

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fklookup/pkg/registry"
)

func TestLoadRegistry(t *testing.T) {
	fsys := fstest.MapFS{
		"widgets/orders.yaml": {Data: []byte(`widgets:
  customer:
    searchUrl: /lookup/customer/search
    resolveUrl: /lookup/customer/resolve
    addUrl: /lookup/customer/add
    zeroPadWidth: 5
`)},
		"widgets/tags.json": {Data: []byte(`{"widgets":{"tags":{"searchUrl":"/lookup/tag/search","resolveUrl":"/lookup/tag/resolve","target":"multi-raw"}}}`)},
	}

	store, err := LoadRegistry(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"customer", "tags"}, store.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	customer, _ := store.Lookup("customer")
	if customer.ZeroPadWidth != 5 || !customer.HasAdd() || customer.Target != registry.TargetDeferred {
		t.Fatalf("unexpected customer config %+v", customer)
	}
	tags, _ := store.Lookup("tags")
	if tags.Target != registry.TargetMultiRaw {
		t.Fatalf("unexpected tags target %q", tags.Target)
	}
}

func TestLoadOpenAPIRegistry(t *testing.T) {
	doc := []byte(`{
  "openapi": "3.0.3",
  "info": {"title": "orders", "version": "1"},
  "paths": {},
  "components": {
    "schemas": {
      "Order": {
        "type": "object",
        "properties": {
          "customer": {
            "type": "string",
            "x-fk-widget": {"searchUrl": "/lookup/customer/search", "resolveUrl": "/lookup/customer/resolve"}
          },
          "note": {"type": "string"}
        }
      }
    }
  }
}`)
	store, err := LoadOpenAPIRegistry(context.Background(), doc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"customer"}, store.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFormAndEmbeddedTemplates(t *testing.T) {
	markup := `<form>
  <input type="text" name="customer" id="id_customer" class="ajax-fk" value="7"
    data-fk-widget='{"searchUrl":"/s","resolveUrl":"/r"}'>
  <a id="id_customer_display">Acme</a>
  <input type="text" name="note" value="x">
</form>`
	doc, store, err := ParseForm(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one lookup field, got %d", store.Len())
	}
	field, ok := doc.Field("customer")
	if !ok || field.Display.Text != "Acme" || field.Value() != "7" {
		t.Fatalf("unexpected field %+v", field)
	}
	if _, ok := doc.Field("note"); !ok {
		t.Fatalf("expected plain fields to be parsed too")
	}

	for _, name := range []string{"panel.tpl", "widget.tpl", "add.tpl"} {
		if _, err := fs.Stat(EmbeddedTemplates(), name); err != nil {
			t.Fatalf("expected embedded template %s: %v", name, err)
		}
	}
}
