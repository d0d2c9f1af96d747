package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line.
const ServiceName = "oerms-backend"

// Setup initializes the global zerolog level and returns a root logger
// writing to stdout.
//   - level: trace, debug, info, warn, error, fatal, panic
//   - format: "json" for production, "pretty" for human-readable dev output
func Setup(level, format string) zerolog.Logger {
	return New(os.Stdout, level, format)
}

// New builds a root logger writing to out. Unknown levels fall back to info.
func New(out io.Writer, level, format string) zerolog.Logger {
	if format == "pretty" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Str("service", ServiceName).
		Logger()
}
