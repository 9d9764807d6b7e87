package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_DisabledIsNop(t *testing.T) {
	logger, err := New(false, "")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if logger.Core().Enabled(zap.ErrorLevel) {
		t.Error("disabled logger should not log")
	}
}

func TestNew_DebugWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	logger, err := New(true, path)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Debug("drag start", zap.String("cell", "0-1"))
	Sync(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["event"] != "drag start" || entry["cell"] != "0-1" {
		t.Errorf("entry = %v", entry)
	}
}
