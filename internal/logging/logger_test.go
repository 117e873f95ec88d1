package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger_UsesJSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(Options{Level: "debug", Writer: &buf, Component: "hub"})
	lg.Debug("boot", "k", "v")

	out := strings.TrimSpace(buf.String())
	if !strings.Contains(out, `"level":"DEBUG"`) {
		t.Fatalf("expected DEBUG level, got %s", out)
	}
	if !strings.Contains(out, `"component":"hub"`) {
		t.Fatalf("expected component field, got %s", out)
	}
}

func TestNewLogger_DefaultLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(Options{Writer: &buf})
	lg.Debug("hidden")
	lg.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered at default level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info record missing: %s", out)
	}
}
