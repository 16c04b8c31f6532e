package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMake_Defaults(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf)

	if logger.Level() != LevelInfo {
		t.Errorf("Level() = %v, want %v", logger.Level(), LevelInfo)
	}

	if logger.Format() != FormatJSON {
		t.Errorf("Format() = %v, want %v", logger.Format(), FormatJSON)
	}

	if logger.caller || !logger.pretty {
		t.Errorf("caller = %v, pretty = %v", logger.caller, logger.pretty)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		log    func(Logger, string, ...slog.Attr)
		min    Level
		logged bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"error at debug", Logger.Error, LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.min)), "message")

			if got := buf.Len() > 0; got != tt.logged {
				t.Errorf("logged = %v, want %v", got, tt.logged)
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelTrace), WithPretty(false))
	logger.With(slog.String("unit", "u1")).Trace("node", slog.Int("depth", 2))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	want := map[string]any{
		"msg":   "node",
		"level": "TRACE",
		"unit":  "u1",
		"depth": float64(2),
	}

	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%q] = %v, want %v", k, entry[k], v)
		}
	}
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatText), WithPretty(false))
	logger.Info("compiled", slog.String("type", "string"))

	out := buf.String()
	for _, want := range []string{"level=INFO", "msg=compiled", "type=string"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithPretty(false)).Info("here")

	var entry struct {
		Source struct {
			File string `json:"file"`
		} `json:"source"`
	}

	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}

	if !strings.HasSuffix(entry.Source.File, "log_test.go") {
		t.Errorf("source file = %q, want the calling test file", entry.Source.File)
	}

	buf.Reset()
	Make(&buf, WithPretty(false)).Info("here")

	if strings.Contains(buf.String(), `"source"`) {
		t.Errorf("source included without WithCaller: %s", buf.String())
	}
}

func TestLogger_TimeLayout(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithTimeLayout("none"), WithPretty(false)).Info("untimed")

	if strings.Contains(buf.String(), `"time"`) {
		t.Errorf("time included with layout none: %s", buf.String())
	}

	buf.Reset()
	Make(&buf, WithTimeLayout("2006"), WithPretty(false)).Info("timed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}

	if s, _ := entry["time"].(string); len(s) != 4 {
		t.Errorf("time = %v, want a year", entry["time"])
	}
}

func TestLogger_Wrap(t *testing.T) {
	var first, second bytes.Buffer

	base := Make(&first, WithLevel(LevelWarn))
	wrapped := base.Wrap(WithOutput(&second), WithLevel(LevelDebug))

	wrapped.Debug("wrapped")
	base.Debug("base")

	if first.Len() != 0 {
		t.Errorf("base logger wrote %q", first.String())
	}

	if !strings.Contains(second.String(), "wrapped") {
		t.Errorf("wrapped logger wrote %q", second.String())
	}

	if base.Level() != LevelWarn {
		t.Errorf("Wrap modified the base level: %v", base.Level())
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("x")
	l.Info("x")
	l.ErrorContext(context.Background(), "x")

	if l.With(slog.String("k", "v")).Logger != nil {
		t.Error("With on the zero Logger should return the zero Logger")
	}

	if l.Logs(context.Background(), LevelError) {
		t.Error("the zero Logger should not log")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Errorf("zero Logger reports %v %v", l.Level(), l.Format())
	}

	var buf bytes.Buffer

	l.Wrap(WithOutput(&buf)).Info("configured")

	if !strings.Contains(buf.String(), "configured") {
		t.Errorf("Wrap of the zero Logger wrote %q", buf.String())
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithPretty(false))

	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			logger.With(slog.Int("id", i)).Info("concurrent")
		}()
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 100 {
		t.Errorf("got %d lines, want 100", n)
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer

	logger := Make(&buf, WithPretty(false)).With(slog.String("component", "bench"))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		logger.Info("benchmark", slog.Int("iteration", i))
	}
}

func BenchmarkLogger_TraceFiltered(b *testing.B) {
	var buf bytes.Buffer

	logger := Make(&buf)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		logger.Trace("filtered", slog.Int("iteration", i))
	}
}
