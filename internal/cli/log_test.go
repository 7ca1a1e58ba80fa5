package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		debug bool
		info  bool
	}{
		{"info", log.InfoLevel, false, true},
		{"debug", log.DebugLevel, true, true},
		{"warn", log.WarnLevel, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, tt.level)

			l.Debug("debug line")
			if got := strings.Contains(buf.String(), "debug line"); got != tt.debug {
				t.Errorf("debug logged = %v, want %v", got, tt.debug)
			}
			l.Info("info line")
			if got := strings.Contains(buf.String(), "info line"); got != tt.info {
				t.Errorf("info logged = %v, want %v", got, tt.info)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.DebugLevel))

	p.step("laid out", "slides", 3)
	p.done("Placed 5 products")

	out := buf.String()
	for _, want := range []string{"laid out", "slides=3", "took=", "Placed 5 products ("} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProgressStepsHiddenAtInfo(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	p.step("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("step logged at info level")
	}
}

func TestLoggerContext(t *testing.T) {
	custom := newLogger(&bytes.Buffer{}, log.InfoLevel)

	if got := loggerFromContext(withLogger(context.Background(), custom)); got != custom {
		t.Error("attached logger not returned")
	}
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("missing logger should fall back to log.Default()")
	}
	if got := loggerFromContext(withLogger(context.Background(), nil)); got != log.Default() {
		t.Error("nil logger should fall back to log.Default()")
	}
}
