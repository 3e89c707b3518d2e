package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/launchpad/internal/ui/output"
	"go.trai.ch/launchpad/internal/ui/style"
)

// PrettyHandler is a slog.Handler that produces human-readable, coloured output.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	return &PrettyHandler{
		out:   output.New(w),
		level: levelVar,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var source string
	attrParts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	collect := func(attr slog.Attr) bool {
		if attr.Key == SourceKey && h.group == "" {
			source = attr.Value.String()
			return true
		}
		attrParts = append(attrParts, formatAttr(h.group, attr))
		return true
	}
	for _, attr := range h.attrs {
		collect(attr)
	}
	r.Attrs(collect)

	msg := r.Message
	if len(attrParts) > 0 {
		msg += " " + strings.Join(attrParts, " ")
	}

	var line string
	switch {
	case source != "":
		line = h.appLine(source, r.Level, msg)
	case r.Level >= slog.LevelError:
		line = h.out.String(style.Cross + " " + msg).Foreground(termenv.RGBColor(string(style.Red))).String()
	case r.Level >= slog.LevelWarn:
		line = h.out.String(style.Warning + " " + msg).Foreground(termenv.RGBColor(string(style.Yellow))).String()
	default:
		line = h.out.String(msg).Foreground(termenv.RGBColor(string(style.Slate))).String()
	}

	_, err := h.out.WriteString(line + "\n")
	return err
}

// appLine renders a flagged line of application output behind a faint
// [source] prefix. Only the icon is coloured; the line keeps its own text.
func (h *PrettyHandler) appLine(source string, level slog.Level, msg string) string {
	prefix := h.out.String("[" + source + "]").Faint().String()
	icon := style.Warning
	color := termenv.RGBColor(string(style.Yellow))
	if level >= slog.LevelError {
		icon = style.Cross
		color = termenv.RGBColor(string(style.Red))
	}
	return prefix + " " + h.out.String(icon).Foreground(color).String() + " " + msg
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: newAttrs,
		group: h.group,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: h.attrs,
		group: name,
	}
}

// formatAttr renders key=value, prefixing the key with the group if one is set.
func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.String()
}
