package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sidingsmedia/alarm/internal/infrastructure/config"
)

// Levels beyond the four slog provides. Trace sits below debug for
// byte-level wire logging; fatal sits above error and ends the process.
const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Logger wraps slog.Logger with alarm-specific functionality.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger

	// exit is invoked by Fatal after the entry has been written.
	exit func(code int)
}

// New creates a new Logger with the specified configuration.
//
// It configures:
//   - Output format (JSON for production, text for development)
//   - Log level filtering, including trace and fatal
//   - Default fields (service name, version)
//   - Output destination
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	return newWithWriter(output, cfg, version)
}

func newWithWriter(output io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: replaceLevelName,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "alarm"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
		exit:   os.Exit,
	}
}

// replaceLevelName renders the custom levels as TRACE and FATAL instead of
// slog's default "DEBUG-4" / "ERROR+4".
func replaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch level {
	case LevelTrace:
		a.Value = slog.StringValue("TRACE")
	case LevelFatal:
		a.Value = slog.StringValue("FATAL")
	}
	return a
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: trace, debug, info, warn, error, fatal.
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "fatal":
		return LevelFatal
	default:
		return slog.LevelInfo
	}
}

// Trace logs at LevelTrace.
func (l *Logger) Trace(msg string, args ...any) {
	l.Log(context.Background(), LevelTrace, msg, args...)
}

// Fatal logs at LevelFatal and then terminates the process with exit code 1.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Log(context.Background(), LevelFatal, msg, args...)
	l.exit(1)
}

// With returns a new Logger with additional default attributes.
//
// Example:
//
//	netLog := logger.With("module", "Network")
//	netLog.Info("waiting for requests") // Includes module=Network
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		exit:   l.exit,
	}
}

// Module returns a child logger tagged with the source module name.
func (l *Logger) Module(name string) *Logger {
	return l.With("module", name)
}

// Default creates a default logger for use before configuration is loaded.
//
// This logger outputs to stdout in JSON format at info level.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
