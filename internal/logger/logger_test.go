package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(level)
	l.SetOutput(&buf)
	l.EnableColors(false)
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{" warn ", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"fatal", FATAL},
		{"", INFO},
		{"loud", INFO},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger("warn")

	l.Debugf("hidden %d", 1)
	l.Info("hidden")
	l.Warnf("shown %s", "warning")
	l.Error("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("messages below level were written: %q", out)
	}
	if !strings.Contains(out, "[WARN ]") || !strings.Contains(out, "shown warning") {
		t.Fatalf("warning missing: %q", out)
	}
	if !strings.Contains(out, "[ERROR]") {
		t.Fatalf("error missing: %q", out)
	}
}

func TestCallerPrefix(t *testing.T) {
	l, buf := newBufferLogger("debug")
	l.Infof("hello")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller file in prefix, got %q", buf.String())
	}
}

func TestColors(t *testing.T) {
	l, buf := newBufferLogger("debug")
	l.EnableColors(true)
	l.Warn("coloured")

	if !strings.HasPrefix(buf.String(), levelColors[WARN]) {
		t.Fatalf("expected colour prefix, got %q", buf.String())
	}
}

func TestFatalExits(t *testing.T) {
	l, buf := newBufferLogger("error")
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatalf("boom %d", 7)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "boom 7") {
		t.Fatalf("fatal message missing: %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newBufferLogger("error")
	l.Info("first")
	l.SetLevel("info")
	l.Info("second")

	if l.Level() != INFO {
		t.Fatalf("level = %v", l.Level())
	}
	if strings.Contains(buf.String(), "first") || !strings.Contains(buf.String(), "second") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kit.log")
	l, err := NewFileLogger("info", path)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Fatalf("file contents %q", data)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Debug("nothing")
	if l.Level() != DEBUG {
		t.Fatalf("level = %v", l.Level())
	}
}
