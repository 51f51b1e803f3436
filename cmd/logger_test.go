package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := parseLevel(tc.in); got != tc.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var jsonOut bytes.Buffer
	logger := newLogger(&jsonOut, "json")
	logger.Info().Str("event", "ev-1").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(jsonOut.Bytes(), &entry); err != nil {
		t.Fatalf("json format produced invalid JSON: %v", err)
	}
	if entry["event"] != "ev-1" || entry["message"] != "hello" {
		t.Errorf("unexpected entry %v", entry)
	}

	var consoleOut bytes.Buffer
	console := newLogger(&consoleOut, "console")
	console.Info().Msg("hello")
	if strings.HasPrefix(consoleOut.String(), "{") || !strings.Contains(consoleOut.String(), "hello") {
		t.Errorf("unexpected console output %q", consoleOut.String())
	}
}
