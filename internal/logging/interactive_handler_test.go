package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInteractiveHandler(t *testing.T, buf *bytes.Buffer, caps *testCapabilities, level slog.Level) *InteractiveHandler {
	t.Helper()
	h, err := NewInteractiveHandler(InteractiveHandlerOptions{
		Level:        level,
		Writer:       buf,
		Capabilities: caps,
		Formatter:    NewConsoleFormatter("run_id"),
	})
	require.NoError(t, err)
	return h
}

func TestNewInteractiveHandler_RequiredOptions(t *testing.T) {
	caps := &testCapabilities{}
	var buf bytes.Buffer
	formatter := NewConsoleFormatter()

	tests := []struct {
		name string
		opts InteractiveHandlerOptions
		want error
	}{
		{"no writer", InteractiveHandlerOptions{Capabilities: caps, Formatter: formatter}, ErrInteractiveHandlerWriterRequired},
		{"no capabilities", InteractiveHandlerOptions{Writer: &buf, Formatter: formatter}, ErrInteractiveHandlerCapabilitiesRequired},
		{"no formatter", InteractiveHandlerOptions{Writer: &buf, Capabilities: caps}, ErrInteractiveHandlerFormatterRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInteractiveHandler(tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInteractiveHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	h := newTestInteractiveHandler(t, &buf, &testCapabilities{interactive: true}, slog.LevelInfo)
	assert.True(t, h.Enabled(ctx, slog.LevelInfo))
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))

	h = newTestInteractiveHandler(t, &buf, &testCapabilities{interactive: false}, slog.LevelDebug)
	assert.False(t, h.Enabled(ctx, slog.LevelError))
}

func TestInteractiveHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	h := newTestInteractiveHandler(t, &buf, &testCapabilities{interactive: true}, slog.LevelDebug)

	logger := slog.New(h).With("run_id", "01HZ", "input", "plugin.elf")
	logger.WithGroup("segment").Info("classified", "role", "code", "size", 16)

	assert.Equal(t, "INFO  classified input=plugin.elf segment.role=code segment.size=16\n", buf.String())
}

func TestInteractiveHandler_GroupScopesLaterAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := newTestInteractiveHandler(t, &buf, &testCapabilities{interactive: true}, slog.LevelInfo)

	logger := slog.New(h).WithGroup("out").With("path", "a.3gx")
	logger.Warn("exists")

	assert.Equal(t, "WARN  exists out.path=a.3gx\n", buf.String())
}

func TestInteractiveHandler_NonInteractiveWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	h := newTestInteractiveHandler(t, &buf, &testCapabilities{}, slog.LevelDebug)

	require.NoError(t, h.Handle(context.Background(), newRecord(slog.LevelError, "hidden")))
	assert.Empty(t, buf.String())
}

func TestConsoleFormatter(t *testing.T) {
	f := NewConsoleFormatter("run_id")

	tests := []struct {
		name     string
		record   slog.Record
		useColor bool
		want     string
	}{
		{
			name:   "plain with attributes",
			record: newRecord(slog.LevelWarn, "non-ARM machine", slog.Int("machine", 3), slog.String("run_id", "x")),
			want:   "WARN  non-ARM machine machine=3",
		},
		{
			name:   "quoted string",
			record: newRecord(slog.LevelError, "conversion failed", slog.String("error", "bad entry point")),
			want:   `ERROR conversion failed error="bad entry point"`,
		},
		{
			name:   "debug level",
			record: newRecord(slog.LevelDebug, "entry", slog.String("insn", "")),
			want:   `DEBUG entry insn=""`,
		},
		{
			name:     "colored",
			record:   newRecord(slog.LevelInfo, "done", slog.Int("symbols", 4)),
			useColor: true,
			want:     "\033[32mINFO \033[0m done \033[90msymbols=\033[0m4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatRecord(tt.record, tt.useColor))
		})
	}
}
