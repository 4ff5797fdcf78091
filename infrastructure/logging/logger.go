// Package logging provides structured logging using bolt.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	mu            sync.RWMutex
	defaultLogger *bolt.Logger
)

// Config configures the logger.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format is the output format (json or console).
	Format string

	// Output is the destination; nil means stderr.
	Output io.Writer
}

// DefaultConfig returns console logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: os.Stderr,
	}
}

func parseLevel(s string) bolt.Level {
	switch strings.ToLower(s) {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// New builds a logger without touching the default.
func New(config Config) *bolt.Logger {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	var handler bolt.Handler
	if config.Format == "json" {
		handler = bolt.NewJSONHandler(output)
	} else {
		handler = bolt.NewConsoleHandler(output)
	}
	return bolt.New(handler).SetLevel(parseLevel(config.Level))
}

// Init replaces the default logger.
func Init(config Config) {
	SetDefault(New(config))
}

// SetDefault installs l as the default logger.
func SetDefault(l *bolt.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// Get returns the default logger, initializing it if necessary.
func Get() *bolt.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(DefaultConfig())
	}
	return defaultLogger
}

// LogEvent wraps a bolt.Event so Fields can be chained.
type LogEvent struct {
	event *bolt.Event
}

// NewEvent wraps a bolt.Event for field application.
func NewEvent(e *bolt.Event) *LogEvent {
	return &LogEvent{event: e}
}

// Add applies fields to the event.
func (l *LogEvent) Add(fields ...Field) *LogEvent {
	for _, f := range fields {
		l.event = f(l.event)
	}
	return l
}

// Msg sends the log event with a message.
func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

// Debug starts a debug event on the default logger.
func Debug() *LogEvent {
	return &LogEvent{event: Get().Debug()}
}

// Info starts an info event on the default logger.
func Info() *LogEvent {
	return &LogEvent{event: Get().Info()}
}

// Warn starts a warn event on the default logger.
func Warn() *LogEvent {
	return &LogEvent{event: Get().Warn()}
}

// Error starts an error event on the default logger.
func Error() *LogEvent {
	return &LogEvent{event: Get().Error()}
}
