package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/goliatone/go-fklookup/components/lookup"
	"github.com/goliatone/go-fklookup/internal/config"
	"github.com/goliatone/go-fklookup/internal/logging"
	"github.com/goliatone/go-fklookup/pkg/registry"
)

var formPage = pongo2.Must(pongo2.FromString(`<!doctype html>
<html>
<head><title>Order</title>{% if stylesheet %}<link rel="stylesheet" href="{{ stylesheet }}">{% endif %}</head>
<body>
<form method="post" action="{{ base }}/orders">
  <p><label for="id_customer">Customer</label> {{ customer|safe }}</p>
  <p><label for="id_country">Country</label> {{ country|safe }}</p>
  <p><label for="id_reference">Reference</label> <input type="text" name="reference" id="id_reference" value="{{ reference }}"></p>
  <button type="submit">Save</button>
</form>
</body>
</html>
`))

type app struct {
	cfg       config.ServerConfig
	logger    *zap.Logger
	db        *gorm.DB
	component *lookup.Component
	metrics   *prometheus.Registry
	handler   http.Handler
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(cfg.Server.Database), &gorm.Config{
		Logger: logging.NewGormLogger(logger, logging.GormLevel(cfg.Log.Level)),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(db, cfg.Server.Seed); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	component := lookup.New(
		lookup.WithLogger(logger.Named("lookup")),
		lookup.WithRegisterer(reg),
		lookup.WithPerPage(cfg.Server.PerPage),
		lookup.WithMaxPages(cfg.Server.MaxPages),
		lookup.WithTheme(newThemeCatalog(assetPrefix(cfg.Server.BasePath)), cfg.Server.Theme, cfg.Server.ThemeVariant),
	)
	err = component.Register(
		&lookup.Driver{
			Name:        "customer",
			VerboseName: "customer",
			Source: &lookup.GormSource[Customer]{
				DB:       db,
				Describe: describeCustomer(cfg.Server.BasePath),
				Build:    buildCustomer,
			},
			SearchFields: []string{"name", "^city"},
			ListDisplay:  []lookup.Column{{Field: "name", Label: "Name"}, {Field: "city", Label: "City"}},
			Filters:      []string{"city"},
			Ordering:     []string{"name"},
			AddFields:    []string{"name", "city"},
		},
		&lookup.Driver{
			Name:         "country",
			VerboseName:  "country",
			Source:       lookup.NewSliceSource(countryRecords()),
			SearchFields: []string{"=code", "name"},
			ListDisplay:  []lookup.Column{{Field: "code", Label: "Code"}, {Field: "name", Label: "Name"}},
			Ordering:     []string{"name"},
		},
	)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg.Server,
		logger:    logger,
		db:        db,
		component: component,
		metrics:   reg,
	}
	a.handler, err = a.routes()
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) routes() (http.Handler, error) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.Recoverer, a.requestLogger)

	if _, err := a.component.RegisterRoutes(router, a.cfg.BasePath); err != nil {
		return nil, err
	}
	base := a.basePath()
	router.Get(base+"/form", a.serveForm)
	router.Get(base+"/customers/{pk}/", a.serveCustomer)
	router.Get(assetPrefix(a.cfg.BasePath)+"/lookup.css", serveStylesheet)
	router.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return router, nil
}

func assetPrefix(basePath string) string {
	return strings.TrimRight(strings.TrimSpace(basePath), "/") + "/assets/" + defaultTheme
}

func (a *app) basePath() string {
	return strings.TrimRight(strings.TrimSpace(a.cfg.BasePath), "/")
}

func (a *app) serveForm(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	customer, err := a.component.RenderWidget(r.Context(), lookup.Widget{
		Field:        "customer",
		Driver:       "customer",
		Value:        query.Get("customer"),
		BasePath:     a.cfg.BasePath,
		ZeroPadWidth: 5,
		OnChange:     "announce",
		Target:       registry.TargetDeferred,
	})
	if err != nil {
		a.fail(w, "render customer widget", err)
		return
	}
	country, err := a.component.RenderWidget(r.Context(), lookup.Widget{
		Field:    "country",
		Driver:   "country",
		Value:    query.Get("country"),
		BasePath: a.cfg.BasePath,
	})
	if err != nil {
		a.fail(w, "render country widget", err)
		return
	}

	var stylesheet string
	if t := a.component.Theme(); t != nil && t.AssetURL != nil {
		stylesheet = t.AssetURL(lookup.AssetStylesheet)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = formPage.ExecuteWriter(pongo2.Context{
		"base":       a.basePath(),
		"stylesheet": stylesheet,
		"customer":   customer,
		"country":    country,
		"reference":  query.Get("reference"),
	}, w)
	if err != nil {
		a.logger.Error("render form page", zap.Error(err))
	}
}

func (a *app) serveCustomer(w http.ResponseWriter, r *http.Request) {
	var c Customer
	err := a.db.WithContext(r.Context()).Take(&c, "id = ?", chi.URLParam(r, "pk")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		a.fail(w, "load customer", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s %s (%s)\n", customerKey(c.ID), c.Name, c.City)
}

func (a *app) fail(w http.ResponseWriter, msg string, err error) {
	a.logger.Error(msg, zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (a *app) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	})
}

func (a *app) close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
