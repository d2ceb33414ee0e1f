package monitoring

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Logf("evaluated %d sequences", 3)
	Debugf("class %s: %d dets", "car", 7)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "evaluated 3 sequences" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if entries[1].Level != zap.DebugLevel {
		t.Errorf("expected debug level, got %v", entries[1].Level)
	}
}

func TestSetLoggerNil(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	SetLogger(nil)

	// Must not panic and must not reach the previous logger.
	Logf("dropped")
	if logs.Len() != 0 {
		t.Errorf("no-op logger should not forward entries, got %d", logs.Len())
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		dev     bool
		wantErr bool
	}{
		{"production info", "info", false, false},
		{"development debug", "debug", true, false},
		{"warn", "warn", false, false},
		{"invalid level", "loud", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.level, tt.dev)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if err == nil && l == nil {
				t.Error("expected logger, got nil")
			}
		})
	}
}
