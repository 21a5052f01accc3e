// Package logger provides a configured zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

func init() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
}

// Options configures New.
type Options struct {
	// Level is a zerolog level name. Unknown names mean info.
	Level string
	// Format is "json" or "console".
	Format string
	// Out defaults to stderr.
	Out io.Writer
}

// New returns a logger tagged with the service name. Call sites use .Stack()
// on error events to include stacks.
func New(service string, o Options) zerolog.Logger {
	out := o.Out
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(o.Format, "console") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    true,
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(o.Level))
	if err != nil || o.Level == "" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().
		Str("service", service).
		Timestamp().
		Logger()
}
