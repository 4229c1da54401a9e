package shared

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("expected log output to contain message, got %q", out)
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a == b {
		t.Error("expected unique IDs")
	}
}

func TestGenerateJobID(t *testing.T) {
	id := GenerateJobID()

	if !strings.HasPrefix(id, "job_") {
		t.Errorf("expected job_ prefix, got %q", id)
	}

	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		t.Fatalf("expected job_<ts>_<random>, got %q", id)
	}
	if len(parts[2]) != 7 {
		t.Errorf("expected 7 character random suffix, got %q", parts[2])
	}

	if id == GenerateJobID() {
		t.Error("expected unique job IDs")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{483, "8:03"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-5, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestVisibilityString(t *testing.T) {
	if got := VisibilityString(true); got != "public" {
		t.Errorf("expected public, got %q", got)
	}
	if got := VisibilityString(false); got != "private" {
		t.Errorf("expected private, got %q", got)
	}
}
