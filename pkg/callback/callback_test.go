package callback

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fklookup/pkg/protocol"
	"github.com/goliatone/go-fklookup/pkg/registry"
)

func TestDispatchInvokesConfiguredHandler(t *testing.T) {
	store := registry.MustNew([]registry.WidgetConfig{
		{Field: "customer", OnChange: "customerChanged"},
		{Field: "supplier"},
		{Field: "city", OnChange: "missing"},
	})

	var got []protocol.Result
	handlers, err := NewRegistry(map[string]Handler{
		"customerChanged": func(field string, payload protocol.Result) {
			if field != "customer" {
				t.Fatalf("unexpected field %q", field)
			}
			got = append(got, payload)
		},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	d := NewDispatcher(store, handlers, nil)
	d.Dispatch("customer", protocol.Resolved("1", "Acme", "/c/1/"))
	d.Dispatch("supplier", protocol.Resolved("2", "x", ""))
	d.Dispatch("city", protocol.Resolved("3", "y", ""))
	d.Dispatch("unknown", protocol.Cleared())

	if diff := cmp.Diff([]protocol.Result{protocol.Resolved("1", "Acme", "/c/1/")}, got); diff != "" {
		t.Fatalf("dispatch mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRegistryValidates(t *testing.T) {
	if _, err := NewRegistry(map[string]Handler{"x": nil}); err == nil {
		t.Fatalf("expected nil handler to be rejected")
	}
	if _, err := NewRegistry(map[string]Handler{" ": func(string, protocol.Result) {}}); err == nil {
		t.Fatalf("expected empty name to be rejected")
	}
	var r *Registry
	if _, ok := r.Handler("x"); ok {
		t.Fatalf("nil registry should not resolve handlers")
	}
}
