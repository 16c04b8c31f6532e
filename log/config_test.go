package log

import (
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"Info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info+2", LevelInfo + 2},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	got := slices.Collect(Levels())
	want := []string{"trace", "debug", "info", "warn", "error"}

	if !slices.Equal(got, want) {
		t.Errorf("Levels() = %v, want %v", got, want)
	}

	for _, name := range got {
		if s := ParseLevel(name).String(); s != name {
			t.Errorf("ParseLevel(%q).String() = %q", name, s)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json":   FormatJSON,
		" TEXT ": FormatText,
		"xml":    DefaultFormat,
	}

	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", in, got, want)
		}
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"json", "text"}) {
		t.Errorf("Formats() = %v", got)
	}
}

func TestOptions(t *testing.T) {
	c := apply(config{},
		WithLevel(LevelDebug),
		WithFormat(FormatText),
		WithCaller(true),
		WithPretty(false),
		WithOutput(nil),
	)

	if c.level != LevelDebug || c.format != FormatText || !c.caller || c.pretty {
		t.Errorf("apply() = %+v", c)
	}

	if c.output == nil {
		t.Error("WithOutput(nil) should discard instead of storing nil")
	}

	base := makeConfig(nil)
	_ = WithLevel(LevelError)(base)

	if base.level != DefaultLevel {
		t.Error("options must not modify the config they are applied to")
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		name   string
		layout string
		want   string
	}{
		{"rfc3339", "RFC3339", "2023-10-15T14:30:45Z"},
		{"rfc3339 nano", "rfc3339-nano", "2023-10-15T14:30:45.123456789Z"},
		{"kitchen", "Kitchen", "2:30PM"},
		{"short name", "ms", "Oct 15 14:30:45.123"},
		{"custom", "2006-01-02 15:04", "2023-10-15 14:30"},
		{"none", "none", ""},
		{"empty", "", ""},
		{"blank", "  \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := WithTimeLayout(tt.layout)(config{})
			if got := c.formatTime(now); got != tt.want {
				t.Errorf("formatTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandlerOptions_Level(t *testing.T) {
	c := makeConfig(nil, WithPretty(false))

	for _, l := range levels {
		a := c.handlerOptions().ReplaceAttr(nil, levelAttr(l))
		if want := strings.ToUpper(l.String()); a.Value.String() != want {
			t.Errorf("level %d rendered %q, want %q", l, a.Value.String(), want)
		}
	}
}

func levelAttr(l Level) slog.Attr {
	return slog.Any(slog.LevelKey, slog.Level(l))
}

func BenchmarkFormatTime(b *testing.B) {
	c := WithTimeLayout("RFC3339Nano")(config{})
	now := time.Now()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = c.formatTime(now)
	}
}
