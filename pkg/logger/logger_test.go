package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"DEBUG":   LogLevelDebug,
		" warn ":  LogLevelWarn,
		"error":   LogLevelError,
		"info":    LogLevelInfo,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, LogLevelWarn)

	log.Info("hidden")
	log.WarnWithIntention(IntentionWildcard, "shown", "name", "colors")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "🃏 shown") {
		t.Errorf("expected wildcard icon prefix, got: %s", out)
	}
	if !strings.Contains(out, "name=colors") {
		t.Errorf("expected structured attribute, got: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, LogLevelDebug).WithComponent("engine")

	log.DebugWithIcon("🔍", "lookup")

	if !strings.Contains(buf.String(), "component=engine") {
		t.Errorf("expected component attribute, got: %s", buf.String())
	}
}

func TestWithComponent_ReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, LogLevelInfo).WithComponent("tester").WithComponent("wildcards")

	log.Info("loaded")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=wildcards") {
		t.Errorf("expected a single component=wildcards attribute, got: %s", out)
	}
}

func TestErrorAttributesHaveNoStackTrace(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"new", errors.New("presets.yaml: no such file")},
		{"wrapped", errors.Wrap(errors.New("presets.yaml: no such file"), "failed to load presets")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewLoggerWithWriter(&buf, LogLevelWarn)

			log.WarnWithIntention(IntentionConfig, "Failed to load presets", "error", tt.err)

			out := buf.String()
			if strings.Count(out, "\n") != 1 {
				t.Errorf("expected a single line, got: %s", out)
			}
			if !strings.Contains(out, "no such file") {
				t.Errorf("expected error message, got: %s", out)
			}
			if strings.Contains(out, ".go:") {
				t.Errorf("stack trace leaked into log: %s", out)
			}
		})
	}
}
