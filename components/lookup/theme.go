package lookup

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// AssetStylesheet is the asset key templates use for the theme stylesheet.
const AssetStylesheet = "lookup.stylesheet"

// DeriveThemeConfig derives the renderer configuration for a theme selection:
// manifest partials over fallbacks, then variant partials, tokens merged the
// same way, CSS variables named after tokens and an asset resolver honouring
// the variant files before the base ones.
func DeriveThemeConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	cfg := &theme.RendererConfig{
		Partials: make(map[string]string, len(fallbacks)),
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
	}
	for key, value := range fallbacks {
		cfg.Partials[key] = value
	}
	if selection == nil {
		return cfg
	}
	cfg.Theme = selection.Theme
	cfg.Variant = selection.Variant

	manifest := selection.Manifest
	if manifest == nil {
		return cfg
	}
	if cfg.Theme == "" {
		cfg.Theme = manifest.Name
	}

	prefix := manifest.Assets.Prefix
	files := map[string]string{}
	for key, value := range manifest.Templates {
		cfg.Partials[key] = value
	}
	for key, value := range manifest.Tokens {
		cfg.Tokens[key] = value
	}
	for key, value := range manifest.Assets.Files {
		files[key] = value
	}
	if variant, ok := manifest.Variants[cfg.Variant]; ok {
		for key, value := range variant.Templates {
			cfg.Partials[key] = value
		}
		for key, value := range variant.Tokens {
			cfg.Tokens[key] = value
		}
		for key, value := range variant.Assets.Files {
			files[key] = value
		}
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if strings.Contains(file, "://") || strings.HasPrefix(file, "/") {
			return file
		}
		if prefix == "" {
			return file
		}
		return strings.TrimRight(prefix, "/") + "/" + file
	}
	return cfg
}

// selectTheme resolves the configured theme. A missing selector yields the
// default partials.
func selectTheme(opts Options) (*theme.RendererConfig, error) {
	if opts.ThemeConfig != nil {
		cfg := *opts.ThemeConfig
		merged := DefaultPartials()
		for key, value := range cfg.Partials {
			merged[key] = value
		}
		cfg.Partials = merged
		return &cfg, nil
	}
	if opts.ThemeSelector == nil {
		return DeriveThemeConfig(nil, DefaultPartials()), nil
	}
	selection, err := opts.ThemeSelector.Select(opts.ThemeName, opts.ThemeVariant)
	if err != nil {
		return nil, fmt.Errorf("lookup: select theme %q/%q: %w", opts.ThemeName, opts.ThemeVariant, err)
	}
	return DeriveThemeConfig(selection, DefaultPartials()), nil
}

// themeView is the theme data templates see.
type themeView struct {
	cfg *theme.RendererConfig
}

func (v themeView) partial(key string) string {
	if v.cfg != nil {
		if name := v.cfg.Partials[key]; name != "" {
			return name
		}
	}
	return DefaultPartials()[key]
}

func (v themeView) context() map[string]any {
	if v.cfg == nil {
		return map[string]any{}
	}
	out := map[string]any{
		"name":    v.cfg.Theme,
		"variant": v.cfg.Variant,
		"style":   cssVarsStyle(v.cfg.CSSVars),
	}
	if v.cfg.AssetURL != nil {
		out["stylesheet"] = v.cfg.AssetURL(AssetStylesheet)
	}
	return out
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+vars[key])
	}
	return strings.Join(parts, "; ")
}
