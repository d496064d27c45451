package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("", "debug message")
	l.Info("", "info message")
	l.Warn("", "warn message")
	l.Error("", "error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("expected debug message to be filtered")
	}
	if strings.Contains(out, "info message") {
		t.Error("expected info message to be filtered")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("expected warn message in output")
	}
	if !strings.Contains(out, "error message") {
		t.Error("expected error message in output")
	}
}

func TestLoggerPhaseTag(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)

	l.Info("SET", "phase done")
	if !strings.Contains(buf.String(), "[SET]") {
		t.Errorf("expected phase tag in output, got %q", buf.String())
	}

	buf.Reset()
	l.Info("", "no phase")
	if strings.Contains(buf.String(), "[]") {
		t.Errorf("expected no empty phase tag, got %q", buf.String())
	}
}

func TestLoggerFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)

	l.Info("", "deleted %d keys", 42)
	if !strings.Contains(buf.String(), "deleted 42 keys") {
		t.Errorf("expected formatted message, got %q", buf.String())
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)

	l.Info("", "hidden")
	l.SetLevel(LevelInfo)
	l.Info("", "visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("expected message below level to be filtered")
	}
	if !strings.Contains(out, "visible") {
		t.Error("expected message at level to appear after SetLevel")
	}
}

func TestLoggerConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for _i := 0; _i < 100; _i++ {
				l.Info("worker", "message %d", n)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Count(buf.String(), "\n")
	if lines != 1000 {
		t.Errorf("expected 1000 log lines, got %d", lines)
	}
}
