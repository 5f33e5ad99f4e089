package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MarkupAttr carries the JSON widget config on rendered identifier inputs.
const MarkupAttr = "data-fk-widget"

// FromMarkup collects the widget configs embedded in rendered form markup. The
// input's name attribute is the field name.
func FromMarkup(html string) ([]WidgetConfig, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("registry: parse markup: %w", err)
	}

	var (
		out      []WidgetConfig
		firstErr error
	)
	doc.Find("[" + MarkupAttr + "]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name := strings.TrimSpace(sel.AttrOr("name", ""))
		raw := sel.AttrOr(MarkupAttr, "")
		var cfg WidgetConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			firstErr = fmt.Errorf("registry: field %q: decode %s: %w", name, MarkupAttr, err)
			return false
		}
		if name != "" {
			cfg.Field = name
		}
		out = append(out, cfg)
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
