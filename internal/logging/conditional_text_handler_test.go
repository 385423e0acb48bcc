package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConditionalTextHandler_RequiredOptions(t *testing.T) {
	_, err := NewConditionalTextHandler(ConditionalTextHandlerOptions{Writer: &bytes.Buffer{}})
	assert.ErrorIs(t, err, ErrConditionalTextHandlerCapabilitiesRequired)

	_, err = NewConditionalTextHandler(ConditionalTextHandlerOptions{Capabilities: &testCapabilities{}})
	assert.ErrorIs(t, err, ErrConditionalTextHandlerWriterRequired)
}

func TestConditionalTextHandler(t *testing.T) {
	tests := []struct {
		name        string
		interactive bool
		wantOutput  bool
	}{
		{"non-interactive writes text", false, true},
		{"interactive stays silent", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h, err := NewConditionalTextHandler(ConditionalTextHandlerOptions{
				Capabilities:       &testCapabilities{interactive: tt.interactive},
				TextHandlerOptions: &slog.HandlerOptions{Level: slog.LevelInfo},
				Writer:             &buf,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantOutput, h.Enabled(context.Background(), slog.LevelInfo))
			assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))

			slog.New(h).With("run_id", "r1").WithGroup("out").Info("written", "size", 128)
			if tt.wantOutput {
				assert.Contains(t, buf.String(), "msg=written")
				assert.Contains(t, buf.String(), "run_id=r1")
				assert.Contains(t, buf.String(), "out.size=128")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
