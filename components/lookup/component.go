package lookup

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
)

// ErrDuplicateDriver is returned when registering a driver name twice.
var ErrDuplicateDriver = errors.New("lookup: duplicate driver")

// Component holds the registered drivers together with the handler, templates
// and metrics serving them.
type Component struct {
	opts     Options
	logger   *zap.Logger
	renderer *renderer
	metrics  *metrics

	mu      sync.RWMutex
	drivers map[string]*Driver
}

// New constructs a new component with default options plus any overrides.
func New(fns ...OptionFn) *Component {
	opts := NewOptions(fns...)
	themeCfg, err := selectTheme(opts)
	if err != nil {
		opts.Logger.Warn("lookup theme unavailable, using default templates", zap.Error(err))
		themeCfg = DeriveThemeConfig(nil, DefaultPartials())
	}
	return &Component{
		opts:     opts,
		logger:   opts.Logger,
		renderer: newRenderer(opts.Templates, themeView{cfg: themeCfg}),
		metrics:  newMetrics(opts.Registerer),
		drivers:  make(map[string]*Driver),
	}
}

// Theme returns the resolved theme configuration the component renders with.
func (c *Component) Theme() *theme.RendererConfig {
	return c.renderer.theme.cfg
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return c.opts
}

// Register adds drivers.
func (c *Component) Register(drivers ...*Driver) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range drivers {
		if err := d.validate(); err != nil {
			return err
		}
		if _, exists := c.drivers[d.Name]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateDriver, d.Name)
		}
		c.drivers[d.Name] = d
		c.logger.Debug("lookup driver registered", zap.String("driver", d.Name))
	}
	return nil
}

// Driver returns the driver registered as name.
func (c *Component) Driver(name string) (*Driver, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.drivers[name]
	return d, ok
}

// Drivers lists registered driver names in lexical order.
func (c *Component) Drivers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.drivers))
	for name := range c.drivers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
