package terminal

import (
	"io"
	"os"
	"strings"
)

// colorTerminals lists TERM values (or prefixes) that are known to support
// basic terminal colors.
var colorTerminals = []string{
	"xterm",
	"screen",
	"tmux",
	"rxvt",
	"vt100",
	"vt220",
	"ansi",
	"linux",
	"cygwin",
	"putty",
}

// Capabilities describes what one output stream can display.
type Capabilities interface {
	IsInteractive() bool
	SupportsColor() bool
}

// StreamCapabilities implements Capabilities for a single file descriptor.
type StreamCapabilities struct {
	options    Options
	fd         int
	isTerminal isTerminalFunc
}

// NewCapabilities returns the capabilities of f under the given overrides.
func NewCapabilities(f *os.File, options Options) *StreamCapabilities {
	return &StreamCapabilities{
		options:    options,
		fd:         int(f.Fd()),
		isTerminal: defaultIsTerminal,
	}
}

// ForWriter returns the capabilities of w. Writers other than *os.File,
// such as buffers in tests, are never terminals.
func ForWriter(w io.Writer, options Options) *StreamCapabilities {
	if f, ok := w.(*os.File); ok {
		return NewCapabilities(f, options)
	}
	return &StreamCapabilities{
		options:    options,
		fd:         -1,
		isTerminal: func(int) bool { return false },
	}
}

// IsInteractive reports whether the stream is read by a person. Priority:
// command line overrides, then CI detection, then terminal detection.
func (c *StreamCapabilities) IsInteractive() bool {
	if c.options.ForceInteractive {
		return true
	}
	if c.options.ForceQuiet {
		return false
	}
	if IsCIEnvironment() {
		return false
	}
	return c.isTerminal(c.fd)
}

// SupportsColor reports whether ANSI colors may be written. Priority:
//  1. -no-color
//  2. CLICOLOR_FORCE (truthy enables color even for pipes)
//  3. NO_COLOR (any value, even empty)
//  4. non-interactive streams get no color
//  5. CLICOLOR
//  6. TERM capability
func (c *StreamCapabilities) SupportsColor() bool {
	if c.options.NoColor {
		return false
	}
	if isTruthy(os.Getenv("CLICOLOR_FORCE")) {
		return true
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if !c.IsInteractive() {
		return false
	}
	if cliColor := os.Getenv("CLICOLOR"); cliColor != "" && !isTruthy(cliColor) {
		return false
	}
	return termSupportsColor(os.Getenv("TERM"))
}

// termSupportsColor checks TERM against known color terminals. Unknown
// terminals get no color.
func termSupportsColor(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || term == "dumb" {
		return false
	}
	for _, colorTerm := range colorTerminals {
		if term == colorTerm || strings.HasPrefix(term, colorTerm+"-") {
			return true
		}
	}
	return false
}
