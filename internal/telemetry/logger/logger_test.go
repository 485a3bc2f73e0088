package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Info("engine started", "buckets", 64)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "engine started" {
		t.Errorf("unexpected msg %v", entry["msg"])
	}
	if entry["buckets"] != float64(64) {
		t.Errorf("unexpected buckets attr %v", entry["buckets"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})

	log.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	log.Warn("emitted")
	if buf.Len() == 0 {
		t.Error("warn should pass at warn level")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	SetLevel("error")
	defer SetLevel("info")

	log.Warn("suppressed")
	if buf.Len() != 0 {
		t.Errorf("warn should be filtered after SetLevel(error), got %q", buf.String())
	}
}
