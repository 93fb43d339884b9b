package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/ppiankov/coverscan/internal/model"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, model.LogConfig{Level: "warn", Format: "json"}, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	logger.Info("hidden")
	logger.Warn("fetch failed", "country", "japan", "kind", "timeout")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected only the warning, got %d lines: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["country"] != "japan" || entry["kind"] != "timeout" {
		t.Errorf("Unexpected attributes: %v", entry)
	}
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, model.LogConfig{Level: "error", Format: "text"}, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	logger.Debug("fetching country page")
	if !strings.Contains(buf.String(), "fetching country page") {
		t.Errorf("Expected debug output, got %q", buf.String())
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, model.LogConfig{Format: "xml"}, false); err == nil {
		t.Error("Expected error for unknown format")
	}
}
