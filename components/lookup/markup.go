package lookup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-fklookup/pkg/dom"
	"github.com/goliatone/go-fklookup/pkg/registry"
)

// Widget describes one lookup input to render.
type Widget struct {
	Field  string
	ID     string
	Driver string
	Value  string
	Hidden bool
	// BasePath is where the component routes are mounted.
	BasePath     string
	ZeroPadWidth int
	OnChange     string
	Target       registry.TargetKind
}

func (w Widget) id() string {
	if w.ID != "" {
		return w.ID
	}
	return "id_" + w.Field
}

// WidgetConfig returns the registry entry the client runtime needs for w.
func (c *Component) WidgetConfig(w Widget) (registry.WidgetConfig, error) {
	d, ok := c.Driver(w.Driver)
	if !ok {
		return registry.WidgetConfig{}, fmt.Errorf("lookup: unknown driver %q", w.Driver)
	}
	cfg := registry.WidgetConfig{
		Field:        w.Field,
		Driver:       d.Name,
		Model:        d.verboseName(),
		SearchURL:    EndpointPath(w.BasePath, c.opts.RoutePath, d.Name, EndpointSearch),
		ResolveURL:   EndpointPath(w.BasePath, c.opts.RoutePath, d.Name, EndpointResolve),
		ZeroPadWidth: w.ZeroPadWidth,
		OnChange:     w.OnChange,
		Target:       w.Target,
	}
	if d.CanCreate() {
		cfg.AddURL = EndpointPath(w.BasePath, c.opts.RoutePath, d.Name, EndpointAdd)
	}
	return cfg, nil
}

// RenderWidget renders the identifier input, its display link, the search
// toggle, the add affordance and the panel container for w. The current
// value is resolved so the page loads with its label.
func (c *Component) RenderWidget(ctx context.Context, w Widget) (string, error) {
	cfg, err := c.WidgetConfig(w)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("lookup: encode widget config: %w", err)
	}

	var display, link string
	if w.Value != "" {
		d, _ := c.Driver(w.Driver)
		result, err := d.Resolve(ctx, w.Value)
		if err != nil {
			return "", err
		}
		if result.OK() {
			display, link = result.Display, result.URL
		}
	}

	return c.renderer.render(PartialWidget, map[string]any{
		"name":          w.Field,
		"id":            w.id(),
		"value":         w.Value,
		"hidden":        w.Hidden,
		"config":        string(raw),
		"display":       display,
		"url":           link,
		"none_selected": dom.NoneSelected,
		"add_url":       cfg.AddURL,
	})
}
