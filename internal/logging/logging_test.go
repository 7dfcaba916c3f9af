package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/phuslu/log"

	"github.com/seenimoa/stockpulse/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q): got %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewWriterEmitsJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter("info", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("ticker", "TCS.NS").Int64("seq", 3).Msg("submission started")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug filtered): %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["message"] != "submission started" {
		t.Errorf("message: got %v", entry["message"])
	}
	if entry["ticker"] != "TCS.NS" {
		t.Errorf("ticker: got %v", entry["ticker"])
	}
	if entry["seq"] != float64(3) {
		t.Errorf("seq: got %v", entry["seq"])
	}
}

func TestNewSelectsWriter(t *testing.T) {
	if _, ok := New(config.LoggingConfig{Format: "json"}).Writer.(*log.IOWriter); !ok {
		t.Error("json format should use an IOWriter")
	}
	if _, ok := New(config.LoggingConfig{Format: "text"}).Writer.(*log.ConsoleWriter); !ok {
		t.Error("text format should use a ConsoleWriter")
	}
	fw, ok := New(config.LoggingConfig{File: t.TempDir() + "/pulse.log"}).Writer.(*log.FileWriter)
	if !ok {
		t.Fatal("file setting should use a FileWriter")
	}
	if !strings.HasSuffix(fw.Filename, "pulse.log") {
		t.Errorf("FileWriter.Filename: got %q", fw.Filename)
	}
}
