package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetLevel sets the global log level: debug, info, warn, error.
// Unknown values fall back to info.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetJSONOutput switches from the console writer to raw JSON on stderr.
func SetJSONOutput() {
	log = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func event(e *zerolog.Event, component, msg string, fields map[string]any) {
	e = e.Str("component", component)
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

// DebugCF logs a debug message for a component with structured fields.
func DebugCF(component, msg string, fields map[string]any) {
	event(log.Debug(), component, msg, fields)
}

// InfoCF logs an info message for a component with structured fields.
func InfoCF(component, msg string, fields map[string]any) {
	event(log.Info(), component, msg, fields)
}

// WarnCF logs a warning for a component with structured fields.
func WarnCF(component, msg string, fields map[string]any) {
	event(log.Warn(), component, msg, fields)
}

// WarnC logs a warning for a component without fields.
func WarnC(component, msg string) {
	event(log.Warn(), component, msg, nil)
}

// ErrorCF logs an error for a component with structured fields.
func ErrorCF(component, msg string, fields map[string]any) {
	event(log.Error(), component, msg, fields)
}
