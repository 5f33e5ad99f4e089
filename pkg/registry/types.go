package registry

import (
	"fmt"
	"strings"
)

// TargetKind describes how a popup result is reconciled into a field.
type TargetKind string

const (
	// TargetChoice is a select-like control: the created record becomes a new,
	// selected option.
	TargetChoice TargetKind = "choice"
	// TargetMultiRaw is a comma separated raw identifier list.
	TargetMultiRaw TargetKind = "multi-raw"
	// TargetSimple is a plain input whose value is overwritten.
	TargetSimple TargetKind = "simple"
	// TargetDeferred is a lookup input: the value is set and resolved again.
	TargetDeferred TargetKind = "deferred"
)

// ParseTargetKind normalises raw into a TargetKind. Empty input maps to
// TargetDeferred, the kind used by lookup inputs.
func ParseTargetKind(raw string) (TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(TargetDeferred), "lookup":
		return TargetDeferred, nil
	case string(TargetChoice), "select":
		return TargetChoice, nil
	case string(TargetMultiRaw), "multi", "raw-many":
		return TargetMultiRaw, nil
	case string(TargetSimple), "input":
		return TargetSimple, nil
	default:
		return "", fmt.Errorf("registry: unknown target kind %q", raw)
	}
}

// ExtraParamsFunc contributes additional query parameters to search URLs.
type ExtraParamsFunc func(field string) map[string]string

// PanelShownFunc runs after the search panel content for field is installed.
type PanelShownFunc func(field string)

// WidgetConfig is the immutable configuration of a single lookup field.
type WidgetConfig struct {
	Field        string     `json:"field,omitempty" yaml:"field,omitempty"`
	Driver       string     `json:"driver,omitempty" yaml:"driver,omitempty"`
	Model        string     `json:"model,omitempty" yaml:"model,omitempty"`
	SearchURL    string     `json:"searchUrl" yaml:"searchUrl"`
	AddURL       string     `json:"addUrl,omitempty" yaml:"addUrl,omitempty"`
	ResolveURL   string     `json:"resolveUrl" yaml:"resolveUrl"`
	ZeroPadWidth int        `json:"zeroPadWidth,omitempty" yaml:"zeroPadWidth,omitempty"`
	OnChange     string     `json:"onChange,omitempty" yaml:"onChange,omitempty"`
	Target       TargetKind `json:"target,omitempty" yaml:"target,omitempty"`

	ExtraParams  ExtraParamsFunc `json:"-" yaml:"-"`
	OnPanelShown PanelShownFunc  `json:"-" yaml:"-"`
}

// HasAdd reports whether the field offers the add affordance.
func (c WidgetConfig) HasAdd() bool {
	return strings.TrimSpace(c.AddURL) != ""
}

func (c WidgetConfig) normalise() (WidgetConfig, error) {
	c.Field = strings.TrimSpace(c.Field)
	c.SearchURL = strings.TrimSpace(c.SearchURL)
	c.AddURL = strings.TrimSpace(c.AddURL)
	c.ResolveURL = strings.TrimSpace(c.ResolveURL)
	c.OnChange = strings.TrimSpace(c.OnChange)
	if c.ZeroPadWidth < 0 {
		return WidgetConfig{}, fmt.Errorf("registry: field %q has negative zeroPadWidth", c.Field)
	}
	kind, err := ParseTargetKind(string(c.Target))
	if err != nil {
		return WidgetConfig{}, fmt.Errorf("registry: field %q: %w", c.Field, err)
	}
	c.Target = kind
	return c, nil
}
