package logging

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/isseis/go-3gxtool/internal/color"
)

// MessageFormatter renders a record as one console line.
type MessageFormatter interface {
	FormatRecord(record slog.Record, useColor bool) string
}

// ConsoleFormatter prints "LEVEL message key=value ...". Keys listed in
// hiddenKeys (such as run_id, which is only useful in log files) are
// omitted from the console.
type ConsoleFormatter struct {
	hiddenKeys map[string]struct{}
}

// NewConsoleFormatter creates a formatter that hides the given attribute keys.
func NewConsoleFormatter(hiddenKeys ...string) *ConsoleFormatter {
	hidden := make(map[string]struct{}, len(hiddenKeys))
	for _, k := range hiddenKeys {
		hidden[k] = struct{}{}
	}
	return &ConsoleFormatter{hiddenKeys: hidden}
}

// FormatRecord formats a log record, coloring the level and keys when useColor is set.
func (f *ConsoleFormatter) FormatRecord(record slog.Record, useColor bool) string {
	palette := color.NewPalette(useColor)

	var sb strings.Builder
	sb.WriteString(formatLevel(record.Level, palette))
	sb.WriteByte(' ')
	sb.WriteString(record.Message)

	record.Attrs(func(attr slog.Attr) bool {
		f.appendAttr(&sb, "", attr, palette)
		return true
	})
	return sb.String()
}

func (f *ConsoleFormatter) appendAttr(sb *strings.Builder, prefix string, attr slog.Attr, palette color.Palette) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := prefix + attr.Key
	if _, hidden := f.hiddenKeys[key]; hidden {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = key + "."
		}
		for _, a := range attr.Value.Group() {
			f.appendAttr(sb, groupPrefix, a, palette)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(palette.Apply(color.Gray, key+"="))
	sb.WriteString(formatValue(attr.Value))
}

func formatLevel(level slog.Level, palette color.Palette) string {
	switch {
	case level >= slog.LevelError:
		return palette.Apply(color.Red, "ERROR")
	case level >= slog.LevelWarn:
		return palette.Apply(color.Yellow, "WARN ")
	case level >= slog.LevelInfo:
		return palette.Apply(color.Green, "INFO ")
	default:
		return palette.Apply(color.Gray, "DEBUG")
	}
}

// formatValue formats a slog.Value for display, quoting strings that
// contain spaces.
func formatValue(value slog.Value) string {
	switch value.Kind() {
	case slog.KindString:
		s := value.String()
		if s == "" || strings.ContainsAny(s, " \t\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindTime:
		return value.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return value.Duration().String()
	default:
		return value.String()
	}
}
