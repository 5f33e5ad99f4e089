package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "DEBUG", want: zapcore.DebugLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "loud", want: zapcore.InfoLevel, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, Config{Level: "warn", Format: "json"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	_ = logger.Sync()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "kept" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewWriter(&buf, Config{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	gl := NewGormLogger(base, gormlogger.Warn)
	sql := func() (string, int64) { return "SELECT 1", 0 }

	gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	if !bytes.Contains(buf.Bytes(), []byte(`"sql error"`)) {
		t.Fatalf("expected sql error entry, got %q", buf.String())
	}

	if GormLevel("silent") != gormlogger.Silent || GormLevel("") != gormlogger.Warn {
		t.Fatalf("unexpected gorm level mapping")
	}
}
