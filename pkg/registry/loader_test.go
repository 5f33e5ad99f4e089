package registry

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func TestLoadFSReadsJSONAndYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"customers.yaml": {Data: []byte(`
widgets:
  customer:
    searchUrl: /lookup/customers/search
    resolveUrl: /lookup/customers/resolve
    addUrl: /admin/customers/add/
    zeroPadWidth: 6
    onChange: customerChanged
`)},
		"cities.json": {Data: []byte(`{"widgets":{"city":{"searchUrl":"/lookup/cities/search","resolveUrl":"/lookup/cities/resolve","target":"choice"}}}`)},
		"README.md":   {Data: []byte("ignored")},
	}

	configs, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
	if configs[0].Field != "city" || configs[1].Field != "customer" {
		t.Fatalf("expected configs sorted by field, got %q, %q", configs[0].Field, configs[1].Field)
	}
	customer := configs[1]
	if customer.ZeroPadWidth != 6 || customer.OnChange != "customerChanged" || customer.AddURL != "/admin/customers/add/" {
		t.Fatalf("unexpected customer config %+v", customer)
	}
	if _, err := New(configs); err != nil {
		t.Fatalf("loaded configs should build a store: %v", err)
	}
}

func TestLoadFSRejectsDuplicatesAcrossFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.json": {Data: []byte(`{"widgets":{"customer":{"searchUrl":"/a"}}}`)},
		"b.json": {Data: []byte(`{"widgets":{"customer":{"searchUrl":"/b"}}}`)},
	}
	if _, err := LoadFS(fsys); !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("expected duplicate field error, got %v", err)
	}
}

func TestParseRejectsEmptyAndInvalid(t *testing.T) {
	if _, err := Parse([]byte("  "), "empty.yaml"); err == nil {
		t.Fatalf("expected empty document error")
	}
	if _, err := Parse([]byte("widgets: [unbalanced"), "bad.yaml"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFromOpenAPIReadsExtensions(t *testing.T) {
	doc := []byte(`{
  "openapi": "3.0.3",
  "info": {"title": "orders", "version": "1.0.0"},
  "paths": {},
  "components": {
    "schemas": {
      "Order": {
        "type": "object",
        "properties": {
          "customer_id": {
            "type": "string",
            "x-fk-widget": {
              "searchUrl": "/lookup/customers/search",
              "resolveUrl": "/lookup/customers/resolve",
              "zeroPadWidth": 6
            }
          },
          "notes": {"type": "string"}
        }
      }
    }
  }
}`)

	configs, err := FromOpenAPI(context.Background(), doc)
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("expected one config, got %d", len(configs))
	}
	cfg := configs[0]
	if cfg.Field != "customer_id" || cfg.Model != "Order" || cfg.ZeroPadWidth != 6 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestFromMarkupReadsInputs(t *testing.T) {
	html := `<form>
<input type="text" name="customer" id="id_customer" class="ajax-fk" data-fk-widget='{"searchUrl":"/lookup/customers/search","resolveUrl":"/lookup/customers/resolve","zeroPadWidth":4}'>
<input type="text" name="plain">
</form>`

	configs, err := FromMarkup(html)
	if err != nil {
		t.Fatalf("from markup: %v", err)
	}
	if len(configs) != 1 || configs[0].Field != "customer" || configs[0].ZeroPadWidth != 4 {
		t.Fatalf("unexpected configs %+v", configs)
	}

	if _, err := FromMarkup(`<input name="x" data-fk-widget="{broken">`); err == nil {
		t.Fatalf("expected invalid JSON to fail")
	}
}
