package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiHandler_Enabled(t *testing.T) {
	debug := &recordingHandler{level: slog.LevelDebug}
	errOnly := &recordingHandler{level: slog.LevelError}

	assert.True(t, NewMultiHandler(errOnly, debug).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler(errOnly).Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_Handle(t *testing.T) {
	info := &recordingHandler{level: slog.LevelInfo}
	errOnly := &recordingHandler{level: slog.LevelError}
	h := NewMultiHandler(info, nil, errOnly)
	require.Len(t, h.Handlers(), 2, "nil handlers are dropped")

	require.NoError(t, h.Handle(context.Background(), newRecord(slog.LevelInfo, "converted")))
	require.NoError(t, h.Handle(context.Background(), newRecord(slog.LevelError, "failed")))

	assert.Len(t, info.records, 2)
	require.Len(t, errOnly.records, 1)
	assert.Equal(t, "failed", errOnly.records[0].Message)
}

func TestMultiHandler_HandleJoinsErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")
	ok := &recordingHandler{}
	h := NewMultiHandler(&recordingHandler{err: err1}, ok, &recordingHandler{err: err2})

	err := h.Handle(context.Background(), newRecord(slog.LevelInfo, "msg"))
	assert.ErrorIs(t, err, err1)
	assert.ErrorIs(t, err, err2)
	assert.Len(t, ok.records, 1, "a failing handler does not stop the others")
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	var buf1, buf2 lockedBuffer
	h := NewMultiHandler(
		slog.NewTextHandler(&buf1, nil),
		slog.NewJSONHandler(&buf2, nil),
	)
	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("run_id", "r1")}).WithGroup("elf"))
	logger.Info("loaded", "segments", 3)

	assert.Contains(t, buf1.String(), "run_id=r1")
	assert.Contains(t, buf1.String(), "elf.segments=3")
	assert.Contains(t, buf2.String(), `"run_id":"r1"`)
	assert.Contains(t, buf2.String(), `"elf":{"segments":3}`)
}
