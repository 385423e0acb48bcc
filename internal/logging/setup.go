package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/isseis/go-3gxtool/internal/safefileio"
	"github.com/isseis/go-3gxtool/internal/terminal"
	"github.com/oklog/ulid/v2"
)

// logFilePerm is the permission of JSON log files.
const logFilePerm = 0o600

// ErrInvalidLogLevel is returned by ParseLevel for unknown level names.
var ErrInvalidLogLevel = errors.New("invalid log level")

// Config holds all configuration for logger setup.
type Config struct {
	Level slog.Level

	// Console receives human-readable output; nil means os.Stderr.
	Console io.Writer

	// Capabilities of the console; nil means detect them for Console
	// using TerminalOptions.
	Capabilities    terminal.Capabilities
	TerminalOptions terminal.Options

	// LogFile, when set, receives every record as JSON.
	LogFile string

	// RunID is attached to every record as run_id.
	RunID string
}

// ParseLevel converts debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
	return level, nil
}

// GenerateRunID returns a new, time-ordered identifier for one conversion run.
func GenerateRunID() string {
	return ulid.Make().String()
}

// NewLogger builds the handler chain described by cfg. The returned close
// function releases the log file and must be called once logging is done.
func NewLogger(cfg Config) (*slog.Logger, func() error, error) {
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	capabilities := cfg.Capabilities
	if capabilities == nil {
		capabilities = terminal.ForWriter(console, cfg.TerminalOptions)
	}

	interactive, err := NewInteractiveHandler(InteractiveHandlerOptions{
		Level:        cfg.Level,
		Writer:       console,
		Capabilities: capabilities,
		Formatter:    NewConsoleFormatter("run_id"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create interactive handler: %w", err)
	}

	text, err := NewConditionalTextHandler(ConditionalTextHandlerOptions{
		Capabilities:       capabilities,
		TextHandlerOptions: &slog.HandlerOptions{Level: cfg.Level},
		Writer:             console,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create conditional text handler: %w", err)
	}

	closeFn := func() error { return nil }
	var jsonHandler slog.Handler
	if cfg.LogFile != "" {
		f, err := safefileio.CreateFile(cfg.LogFile, logFilePerm)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		jsonHandler = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level})
		closeFn = f.Close
	}

	var handler slog.Handler = NewMultiHandler(interactive, text, jsonHandler)
	if cfg.RunID != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("run_id", cfg.RunID)})
	}
	return slog.New(handler), closeFn, nil
}

// Setup builds the logger with NewLogger and installs it as the slog default.
func Setup(cfg Config) (func() error, error) {
	logger, closeFn, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closeFn, nil
}
