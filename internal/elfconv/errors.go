package elfconv

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conversion error taxonomy. Every typed error below
// matches exactly one of them through errors.Is.
var (
	// ErrIO indicates the source could not be read or the sink could not be written.
	ErrIO = errors.New("i/o error")

	// ErrFormat indicates a malformed ELF image (bad magic, wrong type, missing symbol table).
	ErrFormat = errors.New("invalid ELF format")

	// ErrLayout indicates the image violates the segment layout contract.
	ErrLayout = errors.New("invalid segment layout")

	// ErrAlignment indicates a size that is not a multiple of 4 where one is required.
	ErrAlignment = errors.New("misaligned segment")
)

// IoError reports a failure reading the source or writing the container.
type IoError struct {
	Msg string
	Err error
}

func (e *IoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *IoError) Unwrap() error { return e.Err }

// Is reports whether target is ErrIO.
func (e *IoError) Is(target error) bool { return target == ErrIO }

// FormatError reports a structurally invalid ELF image.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "format error: " + e.Msg }

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// LayoutError reports a violation of the segment layout rules.
type LayoutError struct {
	Rule   string
	Detail string
}

func (e *LayoutError) Error() string {
	if e.Detail == "" {
		return "layout error: " + e.Rule
	}
	return fmt.Sprintf("layout error: %s (%s)", e.Rule, e.Detail)
}

// Is reports whether target is ErrLayout.
func (e *LayoutError) Is(target error) bool { return target == ErrLayout }

// AlignmentError reports a segment size that is not word aligned.
type AlignmentError struct {
	Index int
	Field string
	Value uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment error: segment %d %s 0x%X is not a multiple of 4", e.Index, e.Field, e.Value)
}

// Is reports whether target is ErrAlignment.
func (e *AlignmentError) Is(target error) bool { return target == ErrAlignment }

// Layout rule names used in LayoutError.Rule.
const (
	RuleTooManySegments  = "too many segments"
	RuleNonContiguous    = "non-contiguous segments"
	RuleInvalidSegment   = "invalid segment"
	RuleOrdering         = "segment ordering violated"
	RuleDuplicateSegment = "duplicate segment"
	RuleUnexpectedBSS    = "unexpected BSS"
	RuleImageTooLarge    = "image too large"
	RuleBadEntryPoint    = "bad entry point"
	RuleNoSegments       = "no loadable segments"
)

func formatErrorf(format string, args ...any) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

func layoutErrorf(rule, format string, args ...any) error {
	return &LayoutError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}
