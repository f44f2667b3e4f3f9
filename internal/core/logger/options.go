package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Format selects the slog handler used for output
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format; anything but "json" is text
func ParseFormat(name string) Format {
	if strings.EqualFold(strings.TrimSpace(name), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

type config struct {
	level  slog.Level
	output io.Writer
	format Format
}

// Option configures a Logger built by New
type Option func(*config)

func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithMinLevel raises the level to at least floor, keeping a stricter one.
// Options apply in order, so it goes after WithLevel.
func WithMinLevel(floor slog.Level) Option {
	return func(c *config) {
		if c.level < floor {
			c.level = floor
		}
	}
}
