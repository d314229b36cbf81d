package utils

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger("production", "loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
	if _, err := NewLogger("development", "debug"); err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
}

func TestLoggerRedactsSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &Logger{SugaredLogger: zap.New(core).Sugar()}

	log.With("component", "test").Warn("calling model", "api_key", "sk-123", "week", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["api_key"] != "[REDACTED]" {
		t.Errorf("api_key = %v, want redacted", fields["api_key"])
	}
	if fields["component"] != "test" {
		t.Errorf("component = %v", fields["component"])
	}
	if fields["week"] != int64(3) {
		t.Errorf("week = %v (%T)", fields["week"], fields["week"])
	}
}
