package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"  Error  ", ErrorLevel},
		{"nonsense", InfoLevel},
		{"", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	Initialize(Config{Level: WarnLevel})
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("should be dropped")
	Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Error("info message leaked past warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("warn message missing")
	}
}

func TestJSONEntries(t *testing.T) {
	Initialize(Config{Level: InfoLevel, JSON: true})
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("structured message", String("section", "adr_index"), Int("count", 3))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry.Message != "structured message" {
		t.Errorf("unexpected message %q", entry.Message)
	}
	if entry.Fields["section"] != "adr_index" {
		t.Errorf("unexpected section field %v", entry.Fields["section"])
	}
}
