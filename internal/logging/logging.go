package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Debug   bool
	Level   string
	Console bool
	Out     io.Writer
}

// New builds the process logger. Debug forces the debug level; otherwise Level
// is parsed and falls back to info.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level(opts)).With().Timestamp().Logger()
}

func level(opts Options) zerolog.Level {
	if opts.Debug {
		return zerolog.DebugLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
