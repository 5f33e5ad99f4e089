package lookup

import (
	"io/fs"
	"net/http"

	theme "github.com/goliatone/go-theme"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// GuardFunc authorises a request before a handler runs. Returning an error
// implementing HTTPError selects the response status.
type GuardFunc func(r *http.Request) error

// Options configures the lookup component.
type Options struct {
	RoutePath  string
	PerPage    int
	MaxPages   int
	Guard      GuardFunc
	Logger     *zap.Logger
	Registerer prometheus.Registerer
	// Templates overrides the embedded panel and widget templates.
	Templates fs.FS

	// ThemeSelector picks the partials, tokens and assets used when
	// rendering. ThemeConfig takes precedence when both are set.
	ThemeSelector theme.ThemeSelector
	ThemeName     string
	ThemeVariant  string
	ThemeConfig   *theme.RendererConfig
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions returns the component defaults.
func DefaultOptions() Options {
	return Options{
		RoutePath: "/lookup",
		PerPage:   10,
		MaxPages:  10,
	}
}

// NewOptions applies fns over the defaults.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/lookup"
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 10
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithPerPage sets the default page size of drivers that do not set one.
func WithPerPage(n int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.PerPage = n
	}
}

// WithMaxPages caps the number of page links rendered in the panel.
func WithMaxPages(n int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxPages = n
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

// WithRegisterer registers the component metrics on reg.
func WithRegisterer(reg prometheus.Registerer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Registerer = reg
	}
}

func WithTemplates(fsys fs.FS) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Templates = fsys
	}
}

// WithTheme renders with the theme selector picks for name and variant.
func WithTheme(selector theme.ThemeSelector, name, variant string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ThemeSelector = selector
		o.ThemeName = name
		o.ThemeVariant = variant
	}
}

// WithThemeConfig renders with an already resolved theme configuration.
func WithThemeConfig(cfg *theme.RendererConfig) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ThemeConfig = cfg
	}
}
