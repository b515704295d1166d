package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		New(&buf, "JSON", "info").Info("hello", "user_id", "u1")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
		}
		if entry["msg"] != "hello" || entry["service"] != "timetable" || entry["user_id"] != "u1" {
			t.Fatalf("unexpected entry %#v", entry)
		}
	})

	t.Run("text format filters below level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := New(&buf, "text", "warn")
		logger.Info("quiet")
		logger.Warn("loud")

		out := buf.String()
		if strings.Contains(out, "quiet") {
			t.Fatalf("info entry should be filtered: %s", out)
		}
		if !strings.Contains(out, "msg=loud") {
			t.Fatalf("expected warn entry, got %s", out)
		}
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != nil {
		t.Fatal("expected no logger on a bare context")
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected the attached logger")
	}
	if ContextWithLogger(ctx, nil) != ctx {
		t.Fatal("nil logger should leave the context unchanged")
	}
}
