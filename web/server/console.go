package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// ConsoleHandler is a slog.Handler that sends records to a console channel
// and passes them on to the server log.
type ConsoleHandler struct {
	consoleChan chan<- ConsoleMessage
	next        slog.Handler
	level       slog.Level
	attrs       []slog.Attr
}

// NewConsoleLogger creates a logger for one request. Records at level or
// above reach the console; next receives whatever it is enabled for.
func NewConsoleLogger(consoleChan chan<- ConsoleMessage, next slog.Handler, level slog.Level) *slog.Logger {
	return slog.New(&ConsoleHandler{consoleChan: consoleChan, next: next, level: level})
}

// Enabled implements slog.Handler
func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level || (h.next != nil && h.next.Enabled(ctx, level))
}

// Handle implements slog.Handler
func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r); err != nil {
			return err
		}
	}
	if r.Level < h.level || h.consoleChan == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString(r.Message)
	write := func(a slog.Attr) bool {
		key := a.Key
		if key == "error" {
			key = "err"
		}
		fmt.Fprintf(&b, " %s=%v", key, a.Value.Resolve())
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	select {
	case h.consoleChan <- ConsoleMessage{Message: b.String(), Timestamp: r.Time, Level: levelName(r.Level)}:
	default:
		// Channel full, skip (don't block)
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

// WithGroup implements slog.Handler. Groups only affect the server log.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	c := *h
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warning"
	case l >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
