package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/isseis/go-3gxtool/internal/terminal"
)

// Static errors for InteractiveHandler validation
var (
	ErrInteractiveHandlerWriterRequired       = errors.New("InteractiveHandler: Writer is required")
	ErrInteractiveHandlerCapabilitiesRequired = errors.New("InteractiveHandler: Capabilities is required")
	ErrInteractiveHandlerFormatterRequired    = errors.New("InteractiveHandler: Formatter is required")
)

// InteractiveHandler writes human-oriented, optionally colored lines and is
// only active when the console is interactive.
type InteractiveHandler struct {
	capabilities terminal.Capabilities
	formatter    MessageFormatter
	writer       io.Writer
	mu           *sync.Mutex
	level        slog.Leveler
	attrs        []slog.Attr
	groups       []string
}

// InteractiveHandlerOptions configures the InteractiveHandler.
type InteractiveHandlerOptions struct {
	// Level is the minimum log level to handle; nil means INFO
	Level slog.Leveler

	// Writer is the output destination (typically os.Stderr)
	Writer io.Writer

	// Capabilities provides terminal feature detection
	Capabilities terminal.Capabilities

	// Formatter renders each record
	Formatter MessageFormatter
}

// NewInteractiveHandler creates a new InteractiveHandler with the given options.
// Returns an error if any required options are missing.
func NewInteractiveHandler(opts InteractiveHandlerOptions) (*InteractiveHandler, error) {
	if opts.Writer == nil {
		return nil, ErrInteractiveHandlerWriterRequired
	}
	if opts.Capabilities == nil {
		return nil, ErrInteractiveHandlerCapabilitiesRequired
	}
	if opts.Formatter == nil {
		return nil, ErrInteractiveHandlerFormatterRequired
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	return &InteractiveHandler{
		capabilities: opts.Capabilities,
		formatter:    opts.Formatter,
		writer:       opts.Writer,
		mu:           &sync.Mutex{},
		level:        level,
	}, nil
}

// Enabled reports whether the handler handles records at the given level.
func (h *InteractiveHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.capabilities.IsInteractive() && level >= h.level.Level()
}

// Handle formats the record with the accumulated attributes and writes one line.
func (h *InteractiveHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.capabilities.IsInteractive() {
		return nil
	}

	record := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	record.AddAttrs(h.attrs...)
	if r.NumAttrs() > 0 {
		attrs := make([]slog.Attr, 0, r.NumAttrs())
		r.Attrs(func(a slog.Attr) bool {
			attrs = append(attrs, a)
			return true
		})
		if len(h.groups) > 0 {
			attrs = []slog.Attr{nestInGroups(h.groups, attrs)}
		}
		record.AddAttrs(attrs...)
	}

	line := h.formatter.FormatRecord(record, h.capabilities.SupportsColor()) + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, line)
	return err
}

// nestInGroups wraps attrs in one group attribute per name, outermost first.
func nestInGroups(groups []string, attrs []slog.Attr) slog.Attr {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	inner := slog.Group(groups[len(groups)-1], args...)
	for i := len(groups) - 2; i >= 0; i-- {
		inner = slog.Group(groups[i], inner)
	}
	return inner
}

// WithAttrs returns a new handler with additional attributes.
func (h *InteractiveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	// Attributes belong to the groups opened so far, not to later ones.
	if len(h.groups) > 0 {
		attrs = []slog.Attr{nestInGroups(h.groups, attrs)}
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a new handler with an additional group.
func (h *InteractiveHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}
