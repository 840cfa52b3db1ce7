package obs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "prod", "info")
	logger.Debug("hidden")
	logger.Info("booking committed", "booking_id", "b-1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "booking committed" || line["booking_id"] != "b-1" {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestTintLoggerInDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "dev", "debug").Debug("visible")
	if !bytes.Contains(buf.Bytes(), []byte("visible")) {
		t.Fatalf("expected debug line, got %q", buf.String())
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Fatal("dev output must be human readable, not JSON")
	}
}
