package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	log = newLogger("info")
}

// Init reconfigures the global logger. Unknown levels fall back to info.
func Init(level string) {
	log = newLogger(level)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

// DebugCF logs a debug message tagged with a component and optional fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	emit(log.Debug(), component, msg, fields)
}

// InfoCF logs an info message tagged with a component and optional fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	emit(log.Info(), component, msg, fields)
}

// WarnCF logs a warning tagged with a component and optional fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	emit(log.Warn(), component, msg, fields)
}

// ErrorCF logs an error tagged with a component and optional fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	emit(log.Error(), component, msg, fields)
}

func emit(e *zerolog.Event, component, msg string, fields map[string]interface{}) {
	e = e.Str("component", component)
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msg(msg)
}
