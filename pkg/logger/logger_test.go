package logger

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
)

func TestInitLevels(t *testing.T) {
	defer Init("info")
	for in, want := range map[string]string{
		"debug":    "debug",
		" WARN ":   "warn",
		"warning":  "warn",
		"Error":    "error",
		"fatal":    "fatal",
		"nonsense": "info",
		"":         "info",
	} {
		Init(in)
		if got := LevelString(); got != want {
			t.Errorf("Init(%q): LevelString() = %q, want %q", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer Init("info")

	Init("warn")
	Debug("debug-msg")
	Info("info-msg")
	Println("println-msg")
	Warnf("warn-msg %s", "x")
	Errorf("error-msg %d", 42)

	out := buf.String()
	for _, hidden := range []string{"debug-msg", "info-msg", "println-msg"} {
		if strings.Contains(out, hidden) {
			t.Errorf("%q should be suppressed at warn level: %q", hidden, out)
		}
	}
	for _, shown := range []string{"warn-msg x", "error-msg 42"} {
		if !strings.Contains(out, shown) {
			t.Errorf("missing %q in %q", shown, out)
		}
	}
}

func TestPlainOutputAndFatalLabel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer Init("info")

	Init("info")
	Println("hello", "there")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("non-terminal output should not be colored: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello there") {
		t.Fatalf("Println output missing: %q", buf.String())
	}

	buf.Reset()
	Slog().Log(context.Background(), slogFatal, "going down")
	if !strings.Contains(buf.String(), "FTL") || !strings.Contains(buf.String(), "going down") {
		t.Fatalf("fatal records should be labelled FTL: %q", buf.String())
	}
}
