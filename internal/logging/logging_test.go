package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("json default", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger, err := New("", "", buf)
		if err != nil {
			t.Fatalf("new logger: %v", err)
		}
		logger.Info("hello", "tracks", 3)

		var record map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("expected json output, got %q", buf.String())
		}
		if record["msg"] != "hello" || record["service"] != "chartsync" {
			t.Fatalf("unexpected record %v", record)
		}
	})

	t.Run("level filters", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger, err := New("warn", "text", buf)
		if err != nil {
			t.Fatalf("new logger: %v", err)
		}
		logger.Info("dropped")
		logger.Warn("kept")
		if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
			t.Fatalf("unexpected output %q", buf.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
			t.Fatalf("expected error for unsupported format")
		}
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in).Level(); got != want {
			t.Fatalf("parseLevel(%q)=%v want %v", in, got, want)
		}
	}
}
