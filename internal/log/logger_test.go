package log

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestSetup(t *testing.T) {
	// Reset logger for testing
	logger.Store(nil)
	once = *new(sync.Once)

	Setup("DEBUG", "text")
	if logger.Load() == nil {
		t.Fatal("Logger should not be nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"TRACE", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"bogus", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")

	WithComponent("tfe").Info("hello")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if out["component"] != "tfe" {
		t.Errorf("Expected component 'tfe', got %v", out["component"])
	}
	if out["msg"] != "hello" {
		t.Errorf("Expected msg 'hello', got %v", out["msg"])
	}
}

func TestSetupWriterFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "text")

	Get().Info("quiet")
	Warn("loud")

	if strings.Contains(buf.String(), "quiet") {
		t.Errorf("info line should be filtered at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("warn line missing: %s", buf.String())
	}
}

func TestWithWorkspace(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, nil)
	logger.Store(slog.New(h))

	WithWorkspace("ws-123").Info("ws msg")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if out["workspace_id"] != "ws-123" {
		t.Errorf("Expected workspace_id 'ws-123', got %v", out["workspace_id"])
	}
}

func TestSetupWriterConcurrentWithGet(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetupWriter(io.Discard, "debug", "text")
		}()
		go func() {
			defer wg.Done()
			WithComponent("race").Debug("concurrent")
		}()
	}
	wg.Wait()
	if Get() == nil {
		t.Fatal("Logger should not be nil")
	}
}
