// Package config loads the settings of the fklookup binaries.
//
// Priority, highest first: bound command flags, FKLOOKUP_ environment
// variables (FKLOOKUP_SERVER_ADDR), the config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/goliatone/go-fklookup/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FKLOOKUP"

// Config holds all binary settings.
type Config struct {
	Log    logging.Config
	Server ServerConfig
	Client ClientConfig
}

// ServerConfig configures the demo lookup server.
type ServerConfig struct {
	Addr          string
	BasePath      string
	Database      string // sqlite DSN
	Seed          bool
	PerPage       int
	MaxPages      int
	ShutdownGrace time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	// Theme and ThemeVariant pick the lookup widget theme.
	Theme        string
	ThemeVariant string
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	BaseURL        string
	FormPath       string
	Timeout        time.Duration
	RequestTimeout time.Duration
	TrustedPanels  bool
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("server.addr", ":8383")
	v.SetDefault("server.base_path", "/")
	v.SetDefault("server.database", "file:fklookup?mode=memory&cache=shared")
	v.SetDefault("server.seed", true)
	v.SetDefault("server.per_page", 10)
	v.SetDefault("server.max_pages", 10)
	v.SetDefault("server.shutdown_grace", 5*time.Second)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.theme", "fklookup")
	v.SetDefault("server.theme_variant", "light")

	v.SetDefault("client.base_url", "http://localhost:8383")
	v.SetDefault("client.form_path", "/form")
	v.SetDefault("client.timeout", 15*time.Second)
	v.SetDefault("client.request_timeout", 15*time.Second)
	v.SetDefault("client.trusted_panels", false)
}

// Load reads file (optional) into v and builds the Config. Without a file,
// fklookup.yaml is looked up in the working directory; a missing default file
// is not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("fklookup")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := Config{
		Log: logging.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Server: ServerConfig{
			Addr:          v.GetString("server.addr"),
			BasePath:      v.GetString("server.base_path"),
			Database:      v.GetString("server.database"),
			Seed:          v.GetBool("server.seed"),
			PerPage:       v.GetInt("server.per_page"),
			MaxPages:      v.GetInt("server.max_pages"),
			ShutdownGrace: v.GetDuration("server.shutdown_grace"),
			ReadTimeout:   v.GetDuration("server.read_timeout"),
			WriteTimeout:  v.GetDuration("server.write_timeout"),
			Theme:         v.GetString("server.theme"),
			ThemeVariant:  v.GetString("server.theme_variant"),
		},
		Client: ClientConfig{
			BaseURL:        v.GetString("client.base_url"),
			FormPath:       v.GetString("client.form_path"),
			Timeout:        v.GetDuration("client.timeout"),
			RequestTimeout: v.GetDuration("client.request_timeout"),
			TrustedPanels:  v.GetBool("client.trusted_panels"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the binaries cannot run with.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Server.PerPage <= 0 {
		return fmt.Errorf("config: server.per_page must be positive")
	}
	if c.Client.RequestTimeout < 0 || c.Client.Timeout < 0 {
		return fmt.Errorf("config: client timeouts must not be negative")
	}
	return nil
}
