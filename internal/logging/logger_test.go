package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func newTestLogger(format string, buf *bytes.Buffer) Logger {
	return NewWriter(Config{Level: "debug", Format: format}, buf)
}

func decodeLine(t *testing.T, line []byte) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("Failed to parse JSON output %q: %v", line, err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level.String() = %q, want %q", got, tt.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != FormatJSON || ParseFormat("JSON") != FormatJSON {
		t.Error("expected FormatJSON")
	}
	if ParseFormat("text") != FormatText || ParseFormat("") != FormatText {
		t.Error("expected FormatText")
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger("json", &buf)

	l.Info("page loaded", "ref", "ab12", "bytes", 42)

	entry := decodeLine(t, buf.Bytes())
	if entry["level"] != "info" {
		t.Errorf("expected level=info, got %v", entry["level"])
	}
	if entry["msg"] != "page loaded" {
		t.Errorf("expected msg='page loaded', got %v", entry["msg"])
	}
	if entry["ref"] != "ab12" {
		t.Errorf("expected ref=ab12, got %v", entry["ref"])
	}
	if entry["bytes"] != float64(42) {
		t.Errorf("expected bytes=42, got %v", entry["bytes"])
	}
}

func TestLoggerJSONErrorValue(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger("json", &buf)

	l.Error("load failed", "error", errors.New("disk gone"))

	entry := decodeLine(t, buf.Bytes())
	if entry["error"] != "disk gone" {
		t.Errorf("expected error text, got %v", entry["error"])
	}
}

func TestLoggerText(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger("text", &buf)

	l.Info("revision bound", "revision", 3, "trx", 17)

	out := buf.String()
	if !strings.Contains(out, "[info]") {
		t.Errorf("expected [info] in output, got: %s", out)
	}
	if !strings.Contains(out, "revision bound revision=3 trx=17") {
		t.Errorf("expected ordered fields, got: %s", out)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(Config{Level: "warn"}, &buf)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Error("debug and info should be filtered")
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Error("warn and error should be present")
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger("json", &buf)

	l.Named("resource").Named("resolver").Debug("cache miss")

	entry := decodeLine(t, buf.Bytes())
	if entry["component"] != "resource.resolver" {
		t.Errorf("expected component=resource.resolver, got %v", entry["component"])
	}

	buf.Reset()
	l.Named("cursor").Info("moved")
	if !strings.Contains(buf.String(), `"component":"cursor"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLoggerNamedText(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger("text", &buf)

	l.Named("cow").Info("committed")
	if !strings.Contains(buf.String(), "[info] cow: committed") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLoggerWithFieldsIsolation(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger("json", &buf)

	child := l.WithFields("revision", 4)

	l.Info("parent message")
	parent := decodeLine(t, buf.Bytes())
	if _, ok := parent["revision"]; ok {
		t.Error("parent logger should not have the child's fields")
	}

	buf.Reset()
	child.Info("child message", "node", 9)
	entry := decodeLine(t, buf.Bytes())
	if entry["revision"] != float64(4) || entry["node"] != float64(9) {
		t.Errorf("child fields missing: %v", entry)
	}
}

func TestLoggerOddPairs(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger("text", &buf)

	l.Info("msg", "dangling")
	if strings.Contains(buf.String(), "dangling") {
		t.Errorf("unpaired key should be dropped, got: %s", buf.String())
	}
}

func TestLoggerConcurrentChildren(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger("json", &buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			child := l.WithFields("worker", i)
			for j := 0; j < 50; j++ {
				child.Info("tick")
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 400 {
		t.Fatalf("expected 400 lines, got %d", len(lines))
	}
	for _, line := range lines {
		decodeLine(t, []byte(line))
	}
}

func TestNewLogger(t *testing.T) {
	if New(Config{Level: "debug", Format: "json", Output: "stderr"}) == nil {
		t.Fatal("New returned nil")
	}
	if NewDefault() == nil {
		t.Fatal("NewDefault returned nil")
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNop()

	// These should not panic
	l.Debug("test")
	l.Info("test")
	l.Warn("test")
	l.Error("test")

	if l.Named("x") == nil || l.WithFields("key", "value") == nil {
		t.Error("nop children should not be nil")
	}
}
