package elfconv

import (
	"bytes"
	"debug/elf"
)

// ELF32 record sizes and field offsets.
const (
	elfHeaderSize     = 52
	programHeaderSize = 32
	sectionHeaderSize = 40
	symbolEntrySize   = 16
)

// elfMagic is the 4-byte ELF identifier.
var elfMagic = []byte(elf.ELFMAG)

// fileHeader is the decoded subset of the ELF32 file header this package needs.
type fileHeader struct {
	class    elf.Class
	data     elf.Data
	typ      elf.Type
	machine  elf.Machine
	entry    uint32
	phoff    uint32
	shoff    uint32
	phnum    uint16
	shnum    uint16
	shstrndx uint16
}

// ProgramHeader is a view of one ELF32 program header entry.
type ProgramHeader struct {
	Type     elf.ProgType
	Offset   uint32
	VAddr    uint32
	FileSize uint32
	MemSize  uint32
	Flags    elf.ProgFlag
}

// SectionHeader is a view of one ELF32 section header entry.
type SectionHeader struct {
	NameOffset uint32
	Type       elf.SectionType
	Offset     uint32
	Size       uint32
	Link       uint32
}

func parseFileHeader(r reader) (fileHeader, error) {
	ident, err := r.slice(0, elf.EI_NIDENT)
	if err != nil {
		return fileHeader{}, formatErrorf("file too short for ELF identification (%d bytes)", r.size())
	}
	if !bytes.Equal(ident[:len(elfMagic)], elfMagic) {
		return fileHeader{}, formatErrorf("bad magic % X, not an ELF file", ident[:len(elfMagic)])
	}

	hdr := fileHeader{
		class: elf.Class(ident[elf.EI_CLASS]),
		data:  elf.Data(ident[elf.EI_DATA]),
	}
	if hdr.class != elf.ELFCLASS32 {
		return fileHeader{}, formatErrorf("unsupported ELF class %s, only ELFCLASS32 is accepted", hdr.class)
	}
	if hdr.data != elf.ELFDATA2LSB {
		return fileHeader{}, formatErrorf("unsupported data encoding %s, only little-endian is accepted", hdr.data)
	}

	f := fieldReader{r: r}
	hdr.typ = elf.Type(f.u16(16))
	hdr.machine = elf.Machine(f.u16(18))
	hdr.entry = f.u32(24)
	hdr.phoff = f.u32(28)
	hdr.shoff = f.u32(32)
	hdr.phnum = f.u16(44)
	hdr.shnum = f.u16(48)
	hdr.shstrndx = f.u16(50)
	if f.err != nil {
		return fileHeader{}, formatErrorf("truncated ELF header: %v", f.err)
	}

	if hdr.typ != elf.ET_EXEC {
		return fileHeader{}, formatErrorf("ELF type is %s, must be ET_EXEC", hdr.typ)
	}
	return hdr, nil
}

func parseProgramHeaders(r reader, hdr fileHeader) ([]ProgramHeader, error) {
	phdrs := make([]ProgramHeader, 0, hdr.phnum)
	for i := range uint64(hdr.phnum) {
		f := fieldReader{r: r, base: uint64(hdr.phoff) + i*programHeaderSize}
		ph := ProgramHeader{
			Type:     elf.ProgType(f.u32(0)),
			Offset:   f.u32(4),
			VAddr:    f.u32(8),
			FileSize: f.u32(16),
			MemSize:  f.u32(20),
			Flags:    elf.ProgFlag(f.u32(24)),
		}
		if f.err != nil {
			return nil, formatErrorf("program header %d: %v", i, f.err)
		}
		phdrs = append(phdrs, ph)
	}
	return phdrs, nil
}

func parseSectionHeaders(r reader, hdr fileHeader) ([]SectionHeader, error) {
	sections := make([]SectionHeader, 0, hdr.shnum)
	for i := range uint64(hdr.shnum) {
		f := fieldReader{r: r, base: uint64(hdr.shoff) + i*sectionHeaderSize}
		sh := SectionHeader{
			NameOffset: f.u32(0),
			Type:       elf.SectionType(f.u32(4)),
			Offset:     f.u32(16),
			Size:       f.u32(20),
			Link:       f.u32(24),
		}
		if f.err != nil {
			return nil, formatErrorf("section header %d: %v", i, f.err)
		}
		sections = append(sections, sh)
	}
	return sections, nil
}

// sectionNames resolves the section header string table named by shstrndx.
// An image without sections has no name table.
func sectionNames(r reader, hdr fileHeader, sections []SectionHeader) (reader, error) {
	if len(sections) == 0 {
		return reader{}, nil
	}
	if int(hdr.shstrndx) >= len(sections) {
		return reader{}, formatErrorf("section name table index %d out of range (%d sections)", hdr.shstrndx, len(sections))
	}
	sh := sections[hdr.shstrndx]
	names, err := r.sub(uint64(sh.Offset), uint64(sh.Size))
	if err != nil {
		return reader{}, formatErrorf("section name table: %v", err)
	}
	return names, nil
}
