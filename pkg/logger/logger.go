package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process logger: JSON lines on stdout tagged with service.
// level overrides the env default ("debug" in dev, "info" otherwise) when it
// parses.
func New(env, level, service string) zerolog.Logger {
	return newWithWriter(os.Stdout, env, level, service)
}

func newWithWriter(w io.Writer, env, level, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	l := zerolog.New(w).With().Timestamp().Str("service", service).Str("env", env).Logger()

	lvl := zerolog.InfoLevel
	if env == "dev" {
		lvl = zerolog.DebugLevel
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			lvl = parsed
		} else {
			l.Warn().Str("level", level).Msg("unknown log level, keeping default")
		}
	}
	return l.Level(lvl)
}
