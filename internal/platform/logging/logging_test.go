package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v want %v", in, got, ok, want)
		}
	}
	if got, ok := ParseLevel("loud"); ok || got != slog.LevelInfo {
		t.Fatalf("ParseLevel(loud)=%v,%v want info,false", got, ok)
	}
}

func TestNewWritesRFC3339AndService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "contract-generator", slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("hello", "k", "v")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "contract-generator" {
		t.Fatalf("service attr missing: %v", line)
	}
	ts, _ := line["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Fatalf("time %q is not RFC3339: %v", ts, err)
	}
}
