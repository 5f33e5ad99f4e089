package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	fklookup "github.com/goliatone/go-fklookup"
	"github.com/goliatone/go-fklookup/internal/config"
	"github.com/goliatone/go-fklookup/internal/console"
	"github.com/goliatone/go-fklookup/internal/logging"
	"github.com/goliatone/go-fklookup/pkg/callback"
	"github.com/goliatone/go-fklookup/pkg/notify"
	"github.com/goliatone/go-fklookup/pkg/protocol"
	"github.com/goliatone/go-fklookup/pkg/transport"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fklookup-cli: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "fklookup-cli",
		Short: "Fill lookup fields of a served form from the terminal",
		Long: `fklookup-cli fetches a form page, attaches the lookup widget to every
field carrying a data-fk-widget config and lets you type identifiers,
search, paginate and add records interactively.

Examples:
  fklookup-cli --base-url http://localhost:8383
  fklookup-cli --form /admin/form?customer=00002`,
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
	flags.String("base-url", "", "Server base URL")
	flags.String("form", "", "Path of the form page")
	flags.Duration("timeout", 0, "Per-request timeout of resolve calls and panel loads")
	flags.Bool("trusted-panels", false, "Install search panels without sanitizing them")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	for key, flag := range map[string]string{
		"client.base_url":        "base-url",
		"client.form_path":       "form",
		"client.request_timeout": "timeout",
		"client.trusted_panels":  "trusted-panels",
		"log.level":              "log-level",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
		_ = closeLog()
	}()

	client, err := transport.NewHTTP(
		transport.WithBaseURL(cfg.Client.BaseURL),
		transport.WithTimeout(cfg.Client.Timeout),
		transport.WithLogger(logger.Named("transport")),
	)
	if err != nil {
		return err
	}
	markup, err := client.GetHTML(ctx, cfg.Client.FormPath)
	if err != nil {
		return fmt.Errorf("fetch form: %w", err)
	}
	doc, store, err := fklookup.ParseForm(markup)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		return fmt.Errorf("%s has no lookup fields", cfg.Client.FormPath)
	}

	prompts := console.NewSurveyDriver(os.Stdout)
	handlers, err := callback.NewRegistry(map[string]callback.Handler{
		"announce": func(field string, payload protocol.Result) {
			logger.Info("field changed",
				zap.String("field", field),
				zap.String("outcome", string(payload.Outcome)),
				zap.String("pk", payload.PK.String()),
			)
		},
	})
	if err != nil {
		return err
	}

	opts := []fklookup.Option{
		fklookup.WithLogger(logger),
		fklookup.WithCallbacks(handlers),
		fklookup.WithRequestTimeout(cfg.Client.RequestTimeout),
		fklookup.WithReporter(func(message string) {
			logger.Warn("widget error", zap.String("message", message))
			notify.Alert(doc)(message)
		}),
	}
	if cfg.Client.TrustedPanels {
		opts = append(opts, fklookup.WithTrustedPanels())
	}
	widget := fklookup.New(doc, store, client, opts...)
	defer widget.Close()

	session := console.NewSession(widget, prompts, client, console.WithLogger(logger.Named("console")))
	return session.Run(ctx)
}
