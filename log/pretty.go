package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the pretty handler. Styles render through a
// renderer bound to the output, so they degrade to plain text when the
// output is not a terminal.
type palette struct {
	key, str, num, on, off, dur, when, null lipgloss.Style
	level                                   map[slog.Level]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return &palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		on:   fg("2"),
		off:  fg("1"),
		dur:  fg("5"),
		when: fg("4"),
		null: fg("8"),
		level: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("8").Bold(true),
			slog.LevelDebug:        fg("4").Bold(true),
			slog.LevelInfo:         fg("2").Bold(true),
			slog.LevelWarn:         fg("3").Bold(true),
			slog.LevelError:        fg("1").Bold(true),
		},
	}
}

func (p *palette) levelStyle(l slog.Level) lipgloss.Style {
	best, style := slog.Level(LevelTrace), p.level[slog.Level(LevelTrace)]

	for lv, s := range p.level {
		if lv <= l && lv >= best {
			best, style = lv, s
		}
	}

	return style
}

// prettyHandler writes records for humans. In text format a record is one
// line of key=value pairs after the level and message; in JSON format it is
// an indented object with unquoted strings. Group names prefix the keys of
// their attributes, joined by dots.
type prettyHandler struct {
	cfg    config
	colors *palette
	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string
}

func newPrettyHandler(cfg config) *prettyHandler {
	return &prettyHandler{
		cfg:    cfg,
		colors: newPalette(cfg.output),
		mu:     new(sync.Mutex),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.cfg.level)
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], h.qualify(attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

// qualify prefixes the keys of attrs with the open groups.
func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.prefix == "" {
		return attrs
	}

	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
	}

	return out
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs()+1)

	if h.cfg.caller && r.PC != 0 {
		if src := r.Source(); src != nil {
			fields = append(fields,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})

		return true
	})

	fields = flatten(nil, "", fields)
	stamp := ""

	if !r.Time.IsZero() {
		stamp = h.cfg.formatTime(r.Time)
	}

	buf := new(bytes.Buffer)

	if h.cfg.format == FormatJSON {
		h.writeObject(buf, stamp, r, fields)
	} else {
		h.writeLine(buf, stamp, r, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.cfg.output.Write(buf.Bytes())

	return err
}

// flatten resolves attribute values and expands groups into dotted keys.
func flatten(out []slog.Attr, prefix string, attrs []slog.Attr) []slog.Attr {
	for _, a := range attrs {
		v := a.Value.Resolve()

		if v.Kind() == slog.KindGroup {
			p := prefix
			if a.Key != "" {
				p += a.Key + "."
			}

			out = flatten(out, p, v.Group())

			continue
		}

		if a.Key == "" {
			continue
		}

		out = append(out, slog.Attr{Key: prefix + a.Key, Value: v})
	}

	return out
}

func (h *prettyHandler) levelName(l slog.Level) string {
	return h.colors.levelStyle(l).Render(strings.ToUpper(Level(l).String()))
}

func (h *prettyHandler) writeLine(
	buf *bytes.Buffer,
	stamp string,
	r slog.Record,
	fields []slog.Attr,
) {
	if stamp != "" {
		buf.WriteString(h.colors.when.Render(stamp))
		buf.WriteByte(' ')
	}

	buf.WriteString(h.levelName(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	for _, a := range fields {
		buf.WriteByte(' ')
		buf.WriteString(h.colors.key.Render(a.Key + "="))
		buf.WriteString(h.value(a.Value))
	}

	buf.WriteByte('\n')
}

func (h *prettyHandler) writeObject(
	buf *bytes.Buffer,
	stamp string,
	r slog.Record,
	fields []slog.Attr,
) {
	member := func(key, value string) {
		if buf.Len() > 2 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  " + h.colors.key.Render(key) + ": " + value)
	}

	buf.WriteString("{\n")

	if stamp != "" {
		member(slog.TimeKey, h.colors.when.Render(stamp))
	}

	member(slog.LevelKey, h.levelName(r.Level))
	member(slog.MessageKey, h.colors.str.Render(r.Message))

	for _, a := range fields {
		member(a.Key, h.value(a.Value))
	}

	buf.WriteString("\n}\n")
}

func (h *prettyHandler) value(v slog.Value) string {
	p := h.colors

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(v.String())
	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return p.on.Render("true")
		}

		return p.off.Render("false")
	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())
	case slog.KindTime:
		return p.when.Render(h.cfg.formatTime(v.Time()))
	default:
		if v.Any() == nil {
			return p.null.Render("nil")
		}

		return p.str.Render(fmt.Sprint(v.Any()))
	}
}
