package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupRejectsUnknownValues(t *testing.T) {
	if err := Setup(Options{Level: "loud"}); err == nil {
		t.Error("Setup with bad level: expected error")
	}
	if err := Setup(Options{Format: "xml"}); err == nil {
		t.Error("Setup with bad format: expected error")
	}
}

func TestTokenNeverLogsRawValue(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	if err := Setup(Options{Level: "info", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	const secret = "eyJhbGciOiJIUzI1NiJ9.payload.signature"
	slog.Info("login", Token(secret))

	out := buf.String()
	if strings.Contains(out, secret) {
		t.Fatalf("raw token leaked into log: %s", out)
	}
	if !strings.Contains(out, `"token":"`) {
		t.Fatalf("token fingerprint missing: %s", out)
	}
	if got := Token("").Value.String(); got != "none" {
		t.Errorf("Token(\"\") = %q, want none", got)
	}
}
