package config

import (
	"fmt"
	"io"
	"log/slog"
)

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("unsupported %s %q", EnvLogLevel, level)
	}

	return l, nil
}

// NewLogger builds the process logger writing to w.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	l, err := ParseLogLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	opts := &slog.HandlerOptions{Level: l}

	switch format {
	case LogFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case LogFormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: unsupported %s %q", ErrInvalidConfig, EnvLogFormat, format)
	}
}
