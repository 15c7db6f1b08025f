package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponent(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	NewComponentLogger(logger, "cascade").Info("picked song",
		String(FieldFilename, "/music/a.flac"),
		Int("score", 42),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO cascade: picked song") {
		t.Fatalf("unexpected log line: %q", line)
	}
	if !strings.Contains(line, "filename=/music/a.flac") {
		t.Fatalf("expected filename attribute, got: %q", line)
	}
	if !strings.Contains(line, "score=42") {
		t.Fatalf("expected score attribute, got: %q", line)
	}
}

func TestConsoleHandlerQuotesSpaces(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("lookup", String(FieldArtist, "the beatles"))
	if !strings.Contains(buf.String(), `artist="the beatles"`) {
		t.Fatalf("expected quoted value, got: %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	handler := newConsoleHandler(&buf, levelVar)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be filtered at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should pass at warn level")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
