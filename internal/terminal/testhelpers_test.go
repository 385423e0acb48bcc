package terminal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupCleanEnv sets up a clean environment for terminal tests by explicitly controlling
// all color-related environment variables and setting only the specified ones.
func setupCleanEnv(t *testing.T, envVars map[string]string) {
	t.Helper()

	// NO_COLOR is checked with os.LookupEnv, so empty and unset differ.
	if value, specified := envVars["NO_COLOR"]; specified {
		t.Setenv("NO_COLOR", value)
	} else {
		// t.Setenv restores the original value at cleanup; unset it afterwards.
		t.Setenv("NO_COLOR", "")
		require.NoError(t, os.Unsetenv("NO_COLOR"))
	}

	valueCheckedVars := append([]string{"CLICOLOR", "CLICOLOR_FORCE", "TERM"}, ciEnvVars...)
	for _, v := range valueCheckedVars {
		t.Setenv(v, envVars[v])
	}
}

// fakeTerminal returns capabilities whose terminal check answers tty.
func fakeTerminal(options Options, tty bool) *StreamCapabilities {
	return &StreamCapabilities{
		options:    options,
		fd:         2,
		isTerminal: func(int) bool { return tty },
	}
}
