package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// zerologLogger adapts zerolog to bootloader.Logger.
type zerologLogger struct {
	log zerolog.Logger
}

// newLogger writes human readable logs to w. Without verbose only errors
// are shown.
func newLogger(w io.Writer, verbose bool) *zerologLogger {
	level := zerolog.ErrorLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return &zerologLogger{
		log: zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}
}

func (l *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}
