// Package converter turns an ELF executable and a plugin information file
// into a 3GX plugin image on disk.
package converter

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/isseis/go-3gxtool/internal/config"
	"github.com/isseis/go-3gxtool/internal/elfconv"
	"github.com/isseis/go-3gxtool/internal/safefileio"
	"github.com/isseis/go-3gxtool/internal/threegx"
)

// DefaultOutputPerm is the permission of written plugin images.
const DefaultOutputPerm = 0o644

// ErrVerifyFailed indicates the written header did not read back as written.
var ErrVerifyFailed = errors.New("output verification failed")

// Options describes one conversion.
type Options struct {
	InputPath  string
	InfoPath   string
	OutputPath string

	// WriteSymbols embeds the symbol table; false strips it.
	WriteSymbols bool

	// Overwrite replaces an existing output file.
	Overwrite bool

	// Verify reads the header back before the output is moved into place.
	Verify bool

	// OutputPerm defaults to DefaultOutputPerm.
	OutputPerm os.FileMode

	// RunID identifies this conversion in logs and the result.
	RunID string

	// Loader reads the plugin information file; nil uses config.NewLoader.
	Loader *config.Loader

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Result summarizes a completed conversion.
type Result struct {
	RunID      string
	InputPath  string
	OutputPath string
	Info       *config.PluginInfo
	Image      *elfconv.Image
	Header     threegx.Header
	InputSize  int64
	OutputSize int64
}

// Run performs the conversion described by opts. The output file is either
// written completely or not at all.
func Run(opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loader := opts.Loader
	if loader == nil {
		loader = config.NewLoader()
	}
	perm := opts.OutputPerm
	if perm == 0 {
		perm = DefaultOutputPerm
	}

	info, err := loader.LoadFile(opts.InfoPath)
	if err != nil {
		return nil, err
	}
	containerInfo, err := info.Info()
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded plugin information", "path", opts.InfoPath, "title", info.Title, "targets", len(containerInfo.Targets))

	data, err := safefileio.SafeReadFile(opts.InputPath)
	if err != nil {
		return nil, &elfconv.IoError{Msg: "failed to read " + opts.InputPath, Err: err}
	}
	img, err := elfconv.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.InputPath, err)
	}
	logImage(logger, img)

	hdr := threegx.NewHeader(info.ContainerVersion())
	var outputSize int64
	err = safefileio.AtomicWrite(opts.OutputPath, perm, opts.Overwrite, func(f *os.File) error {
		if err := threegx.Build(f, hdr, containerInfo, img, opts.WriteSymbols); err != nil {
			return err
		}
		if opts.Verify {
			if err := verifyHeader(f, hdr); err != nil {
				return err
			}
			logger.Debug("Verified output header", "path", opts.OutputPath)
		}
		fi, err := f.Stat()
		if err != nil {
			return fmt.Errorf("failed to stat output: %w", err)
		}
		outputSize = fi.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.OutputPath, err)
	}

	logger.Info("Plugin written",
		"input", opts.InputPath,
		"output", opts.OutputPath,
		"size", outputSize,
		"symbols", hdr.Symtable.Count)

	return &Result{
		RunID:      opts.RunID,
		InputPath:  opts.InputPath,
		OutputPath: opts.OutputPath,
		Info:       info,
		Image:      img,
		Header:     *hdr,
		InputSize:  int64(len(data)),
		OutputSize: outputSize,
	}, nil
}

// logImage reports the validated layout at debug level and warns about
// input that converts but is unlikely to run.
func logImage(logger *slog.Logger, img *elfconv.Image) {
	if img.Machine() != elf.EM_ARM {
		logger.Warn("Input is not an ARM executable", "machine", img.Machine().String())
	}
	layout := img.Layout()
	for _, seg := range layout.Segments {
		logger.Debug("Segment",
			"role", seg.Role.String(),
			"index", seg.Index,
			"address", fmt.Sprintf("0x%08X", seg.MemAddress),
			"mem_size", seg.MemSize,
			"file_size", seg.FileSize)
	}
	logger.Debug("Symbols extracted", "count", len(img.Symbols()), "name_table_size", img.NameTable().Len())

	insn, err := img.EntryInstruction()
	if err != nil {
		logger.Debug("Entry instruction not decoded", "error", err)
		return
	}
	logger.Debug("Entry instruction", "address", fmt.Sprintf("0x%08X", insn.Address), "insn", insn.Text)
}

// verifyHeader reads the header back from f and compares it with want.
func verifyHeader(f *os.File, want *threegx.Header) error {
	raw := make([]byte, threegx.HeaderSize)
	n, err := f.ReadAt(raw, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	if n < threegx.HeaderSize {
		return fmt.Errorf("%w: output is only %d bytes", ErrVerifyFailed, n)
	}
	var got threegx.Header
	if err := got.UnmarshalBinary(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	wantRaw, err := want.MarshalBinary()
	if err != nil {
		return err
	}
	gotRaw, err := got.MarshalBinary()
	if err != nil {
		return err
	}
	if !bytes.Equal(gotRaw, wantRaw) {
		return fmt.Errorf("%w: header differs from what was written", ErrVerifyFailed)
	}
	return nil
}
