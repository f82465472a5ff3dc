package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/fatih/color"
)

// New builds the process logger. format is one of console, text or json.
func New(format, level string, out io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "console":
		return slog.New(NewConsoleHandler(out, lvl)), nil
	case "text":
		return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return lvl, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

// ConsoleHandler prints one colored line per record for local development.
type ConsoleHandler struct {
	l     *log.Logger
	level slog.Level
	attrs []slog.Attr
}

func NewConsoleHandler(out io.Writer, level slog.Level) *ConsoleHandler {
	return &ConsoleHandler{
		l:     log.New(out, "", 0),
		level: level,
	}
}

func (c *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.HiBlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	var b strings.Builder
	writeAttr := func(a slog.Attr) bool {
		b.WriteString(color.GreenString(a.Key))
		b.WriteString("=")
		b.WriteString(fmt.Sprint(a.Value.Any()))
		b.WriteString(" ")
		return true
	}
	for _, a := range c.attrs {
		writeAttr(a)
	}
	r.Attrs(writeAttr)

	c.l.Println(
		r.Time.Format("15:04:05.000"),
		level,
		r.Message,
		strings.TrimSpace(b.String()),
	)
	return nil
}

func (c *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *c
	next.attrs = append(append([]slog.Attr(nil), c.attrs...), attrs...)
	return &next
}

// WithGroup is a no-op; console output is flat.
func (c *ConsoleHandler) WithGroup(_ string) slog.Handler {
	return c
}

func (c *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= c.level
}
