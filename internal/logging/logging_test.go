package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(NewWithWriter(&buf, "info"), "gpio")
	l.Info().Msg("hello")

	if !strings.Contains(buf.String(), "component=gpio") {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestSetLevelAppliesGlobally(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "trace")

	SetLevel("error")
	l.Warn().Msg("muted")
	SetLevel("debug")
	l.Debug().Msg("audible")

	out := buf.String()
	if strings.Contains(out, "muted") {
		t.Errorf("warn should be filtered at global error level: %q", out)
	}
	if !strings.Contains(out, "audible") {
		t.Errorf("debug should pass at global debug level: %q", out)
	}
}
