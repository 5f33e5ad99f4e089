package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8383" || cfg.Server.PerPage != 10 || !cfg.Server.Seed || cfg.Server.Theme != "fklookup" || cfg.Server.ThemeVariant != "light" {
		t.Fatalf("unexpected server defaults %+v", cfg.Server)
	}
	if cfg.Client.RequestTimeout != 15*time.Second || cfg.Client.FormPath != "/form" {
		t.Fatalf("unexpected client defaults %+v", cfg.Client)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("unexpected log level %q", cfg.Log.Level)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fklookup.yaml")
	content := []byte("server:\n  addr: \":9000\"\n  per_page: 25\nclient:\n  request_timeout: 2s\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FKLOOKUP_SERVER_ADDR", ":9100")
	t.Setenv("FKLOOKUP_LOG_FORMAT", "json")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9100" {
		t.Fatalf("expected env to win, got %q", cfg.Server.Addr)
	}
	if cfg.Server.PerPage != 25 || cfg.Client.RequestTimeout != 2*time.Second {
		t.Fatalf("expected file values, got %+v %+v", cfg.Server, cfg.Client)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Log.Format)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("FKLOOKUP_LOG_LEVEL", "chatty")
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing explicit file")
	}

	if _, err := Load(viper.New(), ""); err == nil {
		t.Fatalf("expected an error for an unknown log level")
	}
}
