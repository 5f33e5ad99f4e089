package main

import (
	"fmt"
	"net/http"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-fklookup/components/lookup"
)

const defaultTheme = "fklookup"

const lookupStylesheet = `.ajax-fk-widget { color: var(--text); background: var(--surface); }
.ajax-fk-widget a { color: var(--brand); }
.ajax-fk-window { border: 1px solid var(--brand); background: var(--surface); }
.ajax-fk-results th { text-align: left; }
.pagination .current { font-weight: bold; }
`

// themeCatalog selects among the manifests the demo server ships with.
type themeCatalog struct {
	manifests map[string]*theme.Manifest
}

func newThemeCatalog(assetPrefix string) themeCatalog {
	return themeCatalog{manifests: map[string]*theme.Manifest{
		defaultTheme: {
			Name:    defaultTheme,
			Version: "1.0.0",
			Tokens: map[string]string{
				"brand":   "#1f6feb",
				"surface": "#ffffff",
				"text":    "#1f2328",
			},
			Assets: theme.Assets{
				Prefix: assetPrefix,
				Files: map[string]string{
					lookup.AssetStylesheet: "lookup.css",
				},
			},
			Variants: map[string]theme.Variant{
				"light": {},
				"dark": {
					Tokens: map[string]string{
						"brand":   "#58a6ff",
						"surface": "#0d1117",
						"text":    "#e6edf3",
					},
				},
			},
		},
	}}
}

// Select implements theme.ThemeSelector. An empty name picks the default
// theme; an empty variant keeps the base tokens.
func (c themeCatalog) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = defaultTheme
	}
	manifest, ok := c.manifests[name]
	if !ok {
		return nil, fmt.Errorf("unknown theme %q", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

func serveStylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(lookupStylesheet))
}
