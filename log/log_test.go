package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestModuleAttachesAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewTextHandler(&buf, nil))

	l.Module("poller").Info("tick", "block", 42)

	out := buf.String()
	if !strings.Contains(out, "module=poller") {
		t.Errorf("output missing module attribute: %q", out)
	}
	if !strings.Contains(out, "block=42") {
		t.Errorf("output missing key-value pair: %q", out)
	}
}

func TestWithAddsContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewTextHandler(&buf, nil))

	l.With("chain", "base").Warn("behind head")

	if out := buf.String(); !strings.Contains(out, "chain=base") {
		t.Errorf("output missing context: %q", out)
	}
}

func TestSetDefaultIgnoresNil(t *testing.T) {
	old := Default()
	SetDefault(nil)
	if Default() != old {
		t.Fatal("SetDefault(nil) replaced the default logger")
	}
}
