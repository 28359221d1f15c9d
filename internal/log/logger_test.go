package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigure_WritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test"})
	t.Cleanup(func() { Configure(Config{Output: &bytes.Buffer{}}) })

	logger := WithComponent("provenance")
	logger.Debug().Str("run_id", "r1").Msg("run recorded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	for key, want := range map[string]string{
		"service":   "test",
		"component": "provenance",
		"run_id":    "r1",
		"message":   "run recorded",
		"level":     "debug",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %s", key, entry[key], want)
		}
	}
}

func TestConfigure_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Configure(Config{Output: &bytes.Buffer{}}) })

	l := Base()
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn entry missing")
	}
}

func TestConfigure_BadLevelFallsBack(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	var buf bytes.Buffer
	Configure(Config{Level: "loud", Output: &buf})
	t.Cleanup(func() { Configure(Config{Output: &bytes.Buffer{}}) })

	l := Base()
	l.Warn().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected LOG_LEVEL=error to apply, got %q", buf.String())
	}
}
