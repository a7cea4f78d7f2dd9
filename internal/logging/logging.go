// Package logging builds the process logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrUnknownFormat is returned for a format other than text or json.
var ErrUnknownFormat = errors.New("unknown log format")

// Format selects the handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseLevel accepts debug, info, warn, warning and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.EqualFold(strings.TrimSpace(s), "warning") {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// New returns a logger writing to w. Every record carries the component
// attribute.
func New(w io.Writer, level slog.Level, format Format, component string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch Format(strings.ToLower(string(format))) {
	case FormatText, "":
		h = slog.NewTextHandler(w, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	logger := slog.New(h)
	if component != "" {
		logger = logger.With(slog.String("component", component))
	}
	return logger, nil
}
