// Package report prints human-readable summaries of a conversion: the
// plugin description, the segment layout and the embedded symbol table.
package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/isseis/go-3gxtool/internal/color"
	"github.com/isseis/go-3gxtool/internal/converter"
	"github.com/isseis/go-3gxtool/internal/elfconv"
	"github.com/isseis/go-3gxtool/internal/threegx"
)

// roleColors distinguishes segments in colored output.
var roleColors = map[elfconv.Role]color.Color{
	elfconv.RoleCode:   color.Green,
	elfconv.RoleRodata: color.Cyan,
	elfconv.RoleData:   color.Yellow,
}

// Printer writes reports to one output stream.
type Printer struct {
	w       io.Writer
	palette color.Palette
}

// NewPrinter returns a printer writing to w, colored when palette is enabled.
func NewPrinter(w io.Writer, palette color.Palette) *Printer {
	return &Printer{w: w, palette: palette}
}

// Summary prints what was converted and where each part ended up.
func (p *Printer) Summary(res *converter.Result) error {
	hdr := res.Header
	info := res.Info
	version := threegx.UnpackVersion(hdr.Version)

	lines := [][2]string{
		{"Plugin", fmt.Sprintf("%s %s", p.palette.Apply(color.Bold, info.Title), version)},
		{"Author", info.Author},
		{"Input", fmt.Sprintf("%s (%s)", filepath.Base(res.InputPath), humanize.Bytes(uint64(res.InputSize)))},
		{"Output", fmt.Sprintf("%s (%s)", filepath.Base(res.OutputPath), humanize.Bytes(uint64(res.OutputSize)))},
		{"Targets", targetsLine(hdr.Targets.Count)},
		{"Run ID", res.RunID},
	}
	for _, l := range lines {
		if l[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(p.w, "%-8s %s\n", l[0]+":", l[1]); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(p.w)
	table.SetHeader([]string{"Segment", "Address", "Size", "Offset"})
	table.SetBorder(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	exe := hdr.Executable
	offsets := map[elfconv.Role]uint32{
		elfconv.RoleCode:   exe.CodeOffset,
		elfconv.RoleRodata: exe.RodataOffset,
		elfconv.RoleData:   exe.DataOffset,
	}
	layout := res.Image.Layout()
	for _, seg := range layout.Segments {
		size := seg.MemSize
		if seg.Role == elfconv.RoleData {
			size = seg.FileSize
		}
		table.Append([]string{
			p.palette.Apply(roleColors[seg.Role], seg.Role.String()),
			fmt.Sprintf("0x%08X", seg.MemAddress),
			humanize.Bytes(uint64(size)),
			fmt.Sprintf("0x%X", offsets[seg.Role]),
		})
		if bss := seg.BSSSize(); bss > 0 {
			table.Append([]string{
				p.palette.Apply(color.Gray, "bss"),
				fmt.Sprintf("0x%08X", seg.MemAddress+seg.FileSize),
				humanize.Bytes(uint64(bss)),
				"-",
			})
		}
	}
	table.Render()

	symbols := "stripped"
	if hdr.Symtable.Count > 0 || hdr.Symtable.SymbolsOffset != 0 {
		symbols = fmt.Sprintf("%d (%s of names)", hdr.Symtable.Count, humanize.Bytes(uint64(res.Image.NameTable().Len())))
	}
	_, err := fmt.Fprintf(p.w, "%-8s %s (image span %s)\n", "Symbols:", symbols, humanize.Bytes(uint64(layout.Span())))
	return err
}

func targetsLine(n uint32) string {
	if n == 0 {
		return "all titles"
	}
	return strconv.FormatUint(uint64(n), 10)
}

// Symbols prints the symbol table of img. ARM-mode functions show their
// first instruction.
func (p *Printer) Symbols(img *elfconv.Image) error {
	table := tablewriter.NewWriter(p.w)
	table.SetHeader([]string{"Address", "Size", "Flags", "Name", "First instruction"})
	table.SetBorder(false)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, sym := range img.Symbols() {
		name, err := img.SymbolName(sym)
		if err != nil {
			return err
		}
		if sym.IsAltName() {
			name = p.palette.Apply(color.Gray, name)
		}
		table.Append([]string{
			fmt.Sprintf("0x%08X", sym.Address),
			strconv.FormatUint(uint64(sym.Size), 10),
			sym.FlagString(),
			name,
			p.firstInstruction(img, sym),
		})
	}
	table.Render()
	return nil
}

func (p *Printer) firstInstruction(img *elfconv.Image, sym threegx.Symbol) string {
	if !sym.IsFunction() {
		return ""
	}
	insn, err := img.DecodeSymbol(sym)
	switch {
	case errors.Is(err, elfconv.ErrThumbNotSupported):
		return p.palette.Apply(color.Gray, "(thumb)")
	case err != nil:
		return p.palette.Apply(color.Gray, "?")
	case insn.IsBranch():
		return p.palette.Apply(color.Purple, insn.Text)
	}
	return insn.Text
}
