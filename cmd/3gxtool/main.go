// Package main provides the 3gxtool command, which converts a statically
// linked ARM ELF executable into a 3GX plugin image.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/isseis/go-3gxtool/internal/color"
	"github.com/isseis/go-3gxtool/internal/converter"
	"github.com/isseis/go-3gxtool/internal/logging"
	"github.com/isseis/go-3gxtool/internal/report"
	"github.com/isseis/go-3gxtool/internal/terminal"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errWrongArgCount = errors.New("expected <input.elf> <plginfo.toml|yaml> <output.3gx>")

type toolConfig struct {
	input       string
	info        string
	output      string
	strip       bool
	force       bool
	listSymbols bool
	verify      bool
	logLevel    string
	logFile     string
	terminal    terminal.Options
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, fs, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		// fs.Parse has already printed the usage for flag errors.
		if errors.Is(err, errWrongArgCount) {
			printUsage(fs, stderr)
		}
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	runID := logging.GenerateRunID()
	logger, closeLog, err := logging.NewLogger(logging.Config{
		Level:           level,
		Console:         stderr,
		TerminalOptions: cfg.terminal,
		LogFile:         cfg.logFile,
		RunID:           runID,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer func() {
		if err := closeLog(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()

	res, err := converter.Run(converter.Options{
		InputPath:    cfg.input,
		InfoPath:     cfg.info,
		OutputPath:   cfg.output,
		WriteSymbols: !cfg.strip,
		Overwrite:    cfg.force,
		Verify:       cfg.verify,
		RunID:        runID,
		Logger:       logger,
	})
	if err != nil {
		logger.Debug("Conversion failed", "error", err)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	palette := color.NewPalette(terminal.ForWriter(stdout, cfg.terminal).SupportsColor())
	printer := report.NewPrinter(stdout, palette)
	if err := printer.Summary(res); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if cfg.listSymbols {
		_, _ = fmt.Fprintln(stdout)
		if err := printer.Symbols(res.Image); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	}
	return exitOK
}

func parseArgs(args []string, stderr io.Writer) (*toolConfig, *flag.FlagSet, error) {
	cfg := &toolConfig{}

	fs := flag.NewFlagSet("3gxtool", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	fs.BoolVar(&cfg.strip, "s", false, "Strip: do not embed the symbol table")
	fs.BoolVar(&cfg.force, "force", false, "Overwrite an existing output file")
	fs.BoolVar(&cfg.force, "f", false, "Short alias for -force")
	fs.BoolVar(&cfg.listSymbols, "list-symbols", false, "Print the symbol table after converting")
	fs.BoolVar(&cfg.verify, "verify", false, "Read the written header back before committing the output")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.logFile, "log-file", "", "Also write JSON logs to this file")
	fs.BoolVar(&cfg.terminal.ForceInteractive, "interactive", false, "Force interactive console output")
	fs.BoolVar(&cfg.terminal.ForceQuiet, "quiet", false, "Force plain, non-interactive console output")
	fs.BoolVar(&cfg.terminal.NoColor, "no-color", false, "Disable colored output")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	if fs.NArg() != 3 {
		return nil, fs, fmt.Errorf("%w, got %d arguments", errWrongArgCount, fs.NArg())
	}
	cfg.input, cfg.info, cfg.output = fs.Arg(0), fs.Arg(1), fs.Arg(2)
	return cfg, fs, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s [flags] <input.elf> <plginfo.toml|yaml> <output.3gx>\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
}
