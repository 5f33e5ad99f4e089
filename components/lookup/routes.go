package lookup

import (
	"fmt"
	"net/http"
	"strings"
)

// Endpoint names served for every driver.
const (
	EndpointResolve = "resolve"
	EndpointSearch  = "search"
	EndpointAdd     = "add"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux and chi.Router.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// EndpointPath returns the path of a driver endpoint mounted under basePath.
func EndpointPath(basePath, routePath, driver, endpoint string) string {
	return mountPath(basePath, routePath) + "/" + driver + "/" + endpoint
}

// RegisterRoutes mounts the endpoints of every driver registered so far under
// basePath. Drivers registered later need another call.
func (c *Component) RegisterRoutes(mux Mux, basePath string) ([]string, error) {
	if mux == nil {
		return nil, fmt.Errorf("lookup: missing mux")
	}
	handler := c.Handler()
	var patterns []string
	for _, name := range c.Drivers() {
		for _, endpoint := range []string{EndpointResolve, EndpointSearch, EndpointAdd} {
			pattern := EndpointPath(basePath, c.opts.RoutePath, name, endpoint)
			mux.Handle(pattern, handler)
			patterns = append(patterns, pattern)
		}
	}
	return patterns, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}
	routePath = strings.TrimRight(routePath, "/")

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}

// splitRoute extracts the driver and endpoint from the last two segments of
// path.
func splitRoute(path string) (driver, endpoint string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "", "", false
	}
	driver = parts[len(parts)-2]
	endpoint = parts[len(parts)-1]
	return driver, endpoint, driver != "" && endpoint != ""
}
