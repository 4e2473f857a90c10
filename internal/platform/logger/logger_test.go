package logger

import "testing"

func TestNew(t *testing.T) {
	log, err := New("production", "warn")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if log.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled at warn level")
	}

	if _, err := New("development", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
