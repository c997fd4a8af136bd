package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Output: &buf}, "moviegraph")
	logger.Debug().Msg("hidden")
	logger.Info().Int("movies", 3).Msg("graph ready")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line emitted at info level: %s", out)
	}
	for _, want := range []string{`"service":"moviegraph"`, `"movies":3`, `"message":"graph ready"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %s missing %s", out, want)
		}
	}
}
