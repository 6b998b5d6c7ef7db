package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOutput(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("NewWithOutput failed: %v", err)
	}

	l.Info("dropped")
	l.WithField("sheet", "Data").Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q", lines[0])
	}
	if entry["msg"] != "kept" || entry["sheet"] != "Data" {
		t.Errorf("Unexpected entry %v", entry)
	}
}

func TestNewWithOutputErrors(t *testing.T) {
	tests := []struct {
		level, format string
	}{
		{"chatty", "text"},
		{"info", "xml"},
	}

	for _, tt := range tests {
		if _, err := NewWithOutput(&bytes.Buffer{}, tt.level, tt.format); err == nil {
			t.Errorf("NewWithOutput(%q, %q) expected an error", tt.level, tt.format)
		}
	}
}

func TestNewDefaultsToText(t *testing.T) {
	l, err := New("debug", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("Expected text formatter, got %T", l.Formatter)
	}
}
