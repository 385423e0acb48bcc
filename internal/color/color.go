// Package color wraps text in ANSI color escape sequences.
//
//nolint:revive // package name conflicts with standard library
package color

// ANSI color codes
const (
	resetCode  = "\033[0m"
	boldCode   = "\033[1m"
	grayCode   = "\033[90m" // Bright black/gray
	greenCode  = "\033[32m"
	yellowCode = "\033[33m"
	redCode    = "\033[31m"
	cyanCode   = "\033[36m"
	purpleCode = "\033[35m"
)

// Color represents a color function that wraps text with ANSI escape
// sequences.
type Color func(text string) string

// NewColor creates a color function with the specified ANSI code.
func NewColor(ansiCode string) Color {
	return func(text string) string {
		if text == "" {
			return ""
		}
		return ansiCode + text + resetCode
	}
}

// Plain leaves text unchanged.
func Plain(text string) string { return text }

// Predefined color functions
var (
	Bold   = NewColor(boldCode)
	Gray   = NewColor(grayCode)
	Green  = NewColor(greenCode)
	Yellow = NewColor(yellowCode)
	Red    = NewColor(redCode)
	Cyan   = NewColor(cyanCode)
	Purple = NewColor(purpleCode)
)

// Palette picks colors for output that may or may not be a color terminal.
// The zero value is a disabled palette.
type Palette struct {
	enabled bool
}

// NewPalette returns a palette that colors text only when enabled is true.
func NewPalette(enabled bool) Palette {
	return Palette{enabled: enabled}
}

// Enabled reports whether the palette emits escape sequences.
func (p Palette) Enabled() bool { return p.enabled }

// Apply colors text with c when the palette is enabled.
func (p Palette) Apply(c Color, text string) string {
	if !p.enabled || c == nil {
		return text
	}
	return c(text)
}
