package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// LoggerOptions identifies the binary writing the logs
type LoggerOptions struct {
	Service string
	Version string
	// Command is the cmd/ entry point, e.g. "api" or "train"
	Command string
	Env     string
	Level   string
	Out     io.Writer
}

// NewLogger builds a logger that stamps every line with the service, command
// and host it came from. Development builds write to the console.
func NewLogger(opts LoggerOptions) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	development := opts.Env == "development"
	if development {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	fields := zerolog.New(out).With().Timestamp().Str("service", opts.Service)
	if opts.Command != "" {
		fields = fields.Str("command", opts.Command)
	}
	if opts.Version != "" {
		fields = fields.Str("version", opts.Version)
	}
	if host, err := os.Hostname(); err == nil {
		fields = fields.Str("host", host)
	}
	if !development {
		fields = fields.Caller()
	}

	logger := fields.Logger()
	if lvl, ok := parseLevel(opts.Level); ok {
		logger = logger.Level(lvl)
	}
	return logger
}

// InitLogger installs the process-wide logger for one command
func InitLogger(opts LoggerOptions) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if lvl, ok := parseLevel(opts.Level); ok {
		zerolog.SetGlobalLevel(lvl)
	}
	log.Logger = NewLogger(opts)
}

func parseLevel(level string) (zerolog.Level, bool) {
	if level == "" {
		return zerolog.NoLevel, false
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	return lvl, err == nil
}

// ForComponent returns the global logger tagged with a long-lived component
// name (event bus, cache invalidation, job lock).
func ForComponent(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LoggerFromContext returns a logger with trace context
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := log.With().Logger()

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		logger = logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return &logger
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}
