package logger

import "testing"

func TestNew(t *testing.T) {
	l, err := New("debug", "validator")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !l.Core().Enabled(-1) {
		t.Error("debug level should be enabled")
	}

	if _, err := New("loud", "validator"); err == nil {
		t.Error("expected error for unknown level")
	}
}
