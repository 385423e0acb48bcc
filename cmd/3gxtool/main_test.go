package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	elfconvtesting "github.com/isseis/go-3gxtool/internal/elfconv/testing"
	"github.com/isseis/go-3gxtool/internal/threegx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paths struct {
	elf, info, out string
}

func setupInputs(t *testing.T, b *elfconvtesting.Builder) paths {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	p := paths{
		elf:  filepath.Join(dir, "plugin.elf"),
		info: filepath.Join(dir, "plgInfo.yaml"),
		out:  filepath.Join(dir, "plugin.3gx"),
	}
	elfconvtesting.WriteFile(t, p.elf, b.Build())
	require.NoError(t, os.WriteFile(p.info, []byte("Author: tester\nTitle: CLI Sample\nVersion:\n  Major: 1\n"), 0o600))
	return p
}

func runTool(args ...string) (int, string, string) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunConvertsPlugin(t *testing.T) {
	p := setupInputs(t, elfconvtesting.Standard())

	code, stdout, stderr := runTool("-verify", "-no-color", p.elf, p.info, p.out)

	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Plugin:  CLI Sample 1.0.0")
	assert.Contains(t, stdout, "Symbols: 4")
	assert.Contains(t, stderr, "Plugin written")

	raw, err := os.ReadFile(p.out)
	require.NoError(t, err)
	var hdr threegx.Header
	require.NoError(t, hdr.UnmarshalBinary(raw))
	assert.Equal(t, uint32(4), hdr.Symtable.Count)
}

func TestRunStripAndListSymbols(t *testing.T) {
	p := setupInputs(t, elfconvtesting.Standard())

	code, stdout, stderr := runTool("-s", "-list-symbols", p.elf, p.info, p.out)

	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Symbols: stripped")
	assert.Contains(t, stdout, "_start")
	assert.Contains(t, stdout, "mov r0, #1")

	raw, err := os.ReadFile(p.out)
	require.NoError(t, err)
	var hdr threegx.Header
	require.NoError(t, hdr.UnmarshalBinary(raw))
	assert.Zero(t, hdr.Symtable.Count)
}

func TestRunForce(t *testing.T) {
	p := setupInputs(t, elfconvtesting.Standard())
	require.NoError(t, os.WriteFile(p.out, []byte("old"), 0o600))

	code, _, stderr := runTool(p.elf, p.info, p.out)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Error:")
	assert.Contains(t, stderr, "file exists")

	code, _, stderr = runTool("-f", p.elf, p.info, p.out)
	assert.Equal(t, exitOK, code, stderr)
}

func TestRunConversionError(t *testing.T) {
	b := elfconvtesting.Standard()
	b.Segments = append(b.Segments, b.Segments[0])
	p := setupInputs(t, b)

	code, stdout, stderr := runTool(p.elf, p.info, p.out)

	assert.Equal(t, exitError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "too many segments")
	assert.NoFileExists(t, p.out)
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "expected <input.elf>"},
		{"too many arguments", []string{"a", "b", "c", "d"}, "got 4 arguments"},
		{"unknown flag", []string{"-bogus", "a", "b", "c"}, "flag provided but not defined"},
		{"bad log level", []string{"-log-level", "loud", "a", "b", "c"}, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runTool(tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRunUsagePrintedOnce(t *testing.T) {
	for _, args := range [][]string{{"-bogus", "a", "b", "c"}, {"a", "b"}} {
		code, _, stderr := runTool(args...)
		assert.Equal(t, exitUsage, code)
		assert.Equal(t, 1, strings.Count(stderr, "Usage:"), stderr)
	}
}

func TestRunHelp(t *testing.T) {
	code, _, stderr := runTool("-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "Usage:")
	assert.Contains(t, stderr, "-list-symbols")
}

func TestRunLogFile(t *testing.T) {
	p := setupInputs(t, elfconvtesting.Standard())
	logPath := filepath.Join(filepath.Dir(p.out), "run.json")

	code, _, stderr := runTool("-log-level", "debug", "-log-file", logPath, p.elf, p.info, p.out)
	require.Equal(t, exitOK, code, stderr)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Entry instruction"`)
	assert.Contains(t, string(data), `"run_id":`)
}
