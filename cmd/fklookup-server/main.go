package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-fklookup/internal/config"
	"github.com/goliatone/go-fklookup/internal/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fklookup-server: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "fklookup-server",
		Short: "Serve the lookup endpoints and a demo form",
		Long: `fklookup-server serves resolve, search and add endpoints for the
customer and country drivers, a demo form embedding both lookup widgets,
and Prometheus metrics on /metrics.

Settings come from flags, FKLOOKUP_* environment variables or fklookup.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Config file (default ./fklookup.yaml)")
	flags.String("addr", "", "HTTP listen address")
	flags.String("base-path", "", "Path prefix of every route")
	flags.String("database", "", "SQLite DSN")
	flags.Bool("seed", true, "Seed demo customers into an empty database")
	flags.String("theme", "", "Lookup widget theme")
	flags.String("theme-variant", "", "Lookup widget theme variant (light, dark)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")

	for key, flag := range map[string]string{
		"server.addr":          "addr",
		"server.base_path":     "base-path",
		"server.database":      "database",
		"server.seed":          "seed",
		"server.theme":         "theme",
		"server.theme_variant": "theme-variant",
		"log.level":            "log-level",
		"log.format":           "log-format",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
		_ = closeLog()
	}()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("form", a.basePath()+"/form"),
			zap.Strings("drivers", a.component.Drivers()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
