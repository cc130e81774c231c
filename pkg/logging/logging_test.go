package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)
	ctx := ContextWithLogger(context.Background(), logger)
	FromContext(ctx).Info("call ended", "debtor", "d1")
	if !strings.Contains(buf.String(), "debtor=d1") {
		t.Fatalf("log output = %q", buf.String())
	}
}

func TestFromContextWithoutLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a discard logger")
	}
	if ContextWithLogger(context.Background(), nil) == nil {
		t.Fatal("nil logger should keep the context")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "desk.log")
	logger, closer, err := OpenFile(path, slog.LevelDebug)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("session active", "user", "iva")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "session active") {
		t.Fatalf("file = %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError,
		"": slog.LevelInfo, "chatty": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
	}
}
