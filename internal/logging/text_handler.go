package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const textTimeLayout = "2006-01-02 15:04:05"

// textHandler writes one logfmt-style line per record:
//
//	2024-06-01 12:00:00 INFO  indexer: seasons indexed show="My Channel" seasons=3
//
// The component becomes the message prefix and the show is always the first
// field.
type textHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	prefix    string
	preset    []field
}

type field struct {
	key   string
	value slog.Value
}

func newTextHandler(w io.Writer, level slog.Leveler, addSource bool) *textHandler {
	return &textHandler{mu: new(sync.Mutex), w: w, level: level, addSource: addSource}
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = appendFields(append([]field(nil), h.preset...), h.prefix, attrs)
	return &next
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	fields := append([]field(nil), h.preset...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendFields(fields, h.prefix, []slog.Attr{a})
		return true
	})

	var component string
	var show *field
	rest := make([]field, 0, len(fields))
	for i, f := range fields {
		switch f.key {
		case FieldComponent:
			component = f.value.String()
		case FieldShow:
			show = &fields[i]
		default:
			rest = upsert(rest, f)
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.Local().Format(textTimeLayout))
	fmt.Fprintf(&b, " %-5s ", levelName(r.Level))
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	if msg := strings.TrimSpace(r.Message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	if show != nil {
		writeField(&b, *show)
	}
	for _, f := range rest {
		writeField(&b, f)
	}
	if h.addSource && r.PC != 0 {
		if src := r.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func appendFields(dst []field, prefix string, attrs []slog.Attr) []field {
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		v := a.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			groupPrefix := prefix
			if a.Key != "" {
				groupPrefix += a.Key + "."
			}
			dst = appendFields(dst, groupPrefix, v.Group())
			continue
		}
		dst = append(dst, field{key: prefix + a.Key, value: v})
	}
	return dst
}

// upsert replaces the value of an existing key in place.
func upsert(fields []field, f field) []field {
	for i := range fields {
		if fields[i].key == f.key {
			fields[i].value = f.value
			return fields
		}
	}
	return append(fields, f)
}

func writeField(b *strings.Builder, f field) {
	b.WriteByte(' ')
	b.WriteString(f.key)
	b.WriteByte('=')
	b.WriteString(renderValue(f.value))
}

func renderValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Local().Format(textTimeLayout)
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
