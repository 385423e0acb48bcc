// Package elfconv validates statically linked ELF32 executables against the
// 3GX plugin layout and converts them into the executable and symbol table
// parts of a 3GX container.
//
// An Image is built once from the raw file contents with Load and is
// read-only afterwards; segment data and string tables are views into the
// loaded buffer.
package elfconv

import (
	"debug/elf"
	"slices"

	"github.com/isseis/go-3gxtool/internal/threegx"
)

// Image is a validated ELF executable ready to be written as a plugin.
type Image struct {
	r        reader
	hdr      fileHeader
	sections []SectionHeader
	shnames  reader
	layout   *Layout
	symbols  []threegx.Symbol
	names    *NameTable
}

// Load parses data as an ELF32 executable, validates its segment layout and
// extracts its symbol table. data must not be modified afterwards.
func Load(data []byte) (*Image, error) {
	r := reader{data: data}

	hdr, err := parseFileHeader(r)
	if err != nil {
		return nil, err
	}
	sections, err := parseSectionHeaders(r, hdr)
	if err != nil {
		return nil, err
	}
	shnames, err := sectionNames(r, hdr, sections)
	if err != nil {
		return nil, err
	}

	if err := checkSegmentCount(int(hdr.phnum)); err != nil {
		return nil, err
	}
	phdrs, err := parseProgramHeaders(r, hdr)
	if err != nil {
		return nil, err
	}
	layout, err := ClassifySegments(phdrs, hdr.entry)
	if err != nil {
		return nil, err
	}
	for _, seg := range layout.Segments {
		if _, err := r.slice(uint64(seg.FileOffset), uint64(seg.FileSize)); err != nil {
			return nil, formatErrorf("%s segment (program header %d) data: %v", seg.Role, seg.Index, err)
		}
	}

	symbols, names, err := extractSymbols(r, sections)
	if err != nil {
		return nil, err
	}

	return &Image{
		r:        r,
		hdr:      hdr,
		sections: sections,
		shnames:  shnames,
		layout:   layout,
		symbols:  symbols,
		names:    names,
	}, nil
}

// Entry returns the ELF entry point.
func (img *Image) Entry() uint32 { return img.hdr.entry }

// Machine returns the ELF machine type.
func (img *Image) Machine() elf.Machine { return img.hdr.machine }

// Layout returns the classified segments.
func (img *Image) Layout() *Layout { return img.layout }

// SegmentData returns the file-resident bytes of the segment holding role,
// or nil if the image has no such segment.
func (img *Image) SegmentData(role Role) []byte {
	seg, ok := img.layout.Segment(role)
	if !ok {
		return nil
	}
	// Bounds were checked in Load.
	b, _ := img.r.slice(uint64(seg.FileOffset), uint64(seg.FileSize))
	return b
}

// Symbols returns a copy of the classified symbols, sorted by address.
func (img *Image) Symbols() []threegx.Symbol { return slices.Clone(img.symbols) }

// SymbolName returns the name recorded for sym.
func (img *Image) SymbolName(sym threegx.Symbol) (string, error) {
	return img.names.Lookup(sym.NameOffset)
}

// NameTable returns the name table built during extraction.
func (img *Image) NameTable() *NameTable { return img.names }

// NumSections returns the number of section headers.
func (img *Image) NumSections() int { return len(img.sections) }

// SectionName returns the name of section i from the section header string
// table.
func (img *Image) SectionName(i int) (string, error) {
	if i < 0 || i >= len(img.sections) {
		return "", formatErrorf("section index %d out of range (%d sections)", i, len(img.sections))
	}
	return img.shnames.cstring(uint64(img.sections[i].NameOffset))
}
