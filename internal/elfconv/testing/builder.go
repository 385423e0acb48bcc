// Package elfconvtesting builds small ELF32 executables for tests.
package elfconvtesting

import (
	"debug/elf"
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// PluginBase is the address 3GX plugins are linked at.
const PluginBase = 0x07000100

// Segment describes one PT_LOAD program header. MemSize defaults to
// len(Data) when zero.
type Segment struct {
	Flags   elf.ProgFlag
	VAddr   uint32
	Data    []byte
	MemSize uint32
}

// Symbol describes one symbol table entry.
type Symbol struct {
	Name  string
	Value uint32
	Size  uint32
	Type  elf.SymType
	Bind  elf.SymBind
	Other uint8
}

// Builder assembles an ELF32 little-endian ARM executable.
type Builder struct {
	Type          elf.Type // ET_EXEC when zero
	Class         elf.Class
	Machine       elf.Machine // EM_ARM when zero
	Entry         uint32
	Segments      []Segment
	Symbols       []Symbol
	NoSymbolTable bool
}

var le = binary.LittleEndian

func align4(n int) int { return (n + 3) &^ 3 }

func pad(b []byte, to int) []byte {
	for len(b) < to {
		b = append(b, 0)
	}
	return b
}

// Build returns the encoded file.
func (b *Builder) Build() []byte {
	typ := b.Type
	if typ == 0 {
		typ = elf.ET_EXEC
	}
	machine := b.Machine
	if machine == 0 {
		machine = elf.EM_ARM
	}
	class := b.Class
	if class == 0 {
		class = elf.ELFCLASS32
	}

	const ehsize, phentsize, shentsize, symentsize = 52, 32, 40, 16

	phoff := ehsize
	off := phoff + phentsize*len(b.Segments)
	dataOffsets := make([]int, len(b.Segments))
	for i, s := range b.Segments {
		dataOffsets[i] = off
		off += align4(len(s.Data))
	}

	shstrtab := []byte("\x00.shstrtab\x00.strtab\x00.symtab\x00")
	const nameShstrtab, nameStrtab, nameSymtab = 1, 11, 19

	strtab := []byte{0}
	symtab := make([]byte, symentsize) // reserved entry 0
	for _, s := range b.Symbols {
		nameOff := uint32(len(strtab))
		strtab = append(strtab, s.Name...)
		strtab = append(strtab, 0)
		symtab = le.AppendUint32(symtab, nameOff)
		symtab = le.AppendUint32(symtab, s.Value)
		symtab = le.AppendUint32(symtab, s.Size)
		symtab = append(symtab, elf.ST_INFO(s.Bind, s.Type), s.Other)
		symtab = le.AppendUint16(symtab, 1)
	}

	shstrtabOff := off
	strtabOff := align4(shstrtabOff + len(shstrtab))
	symtabOff := align4(strtabOff + len(strtab))
	shoff := align4(symtabOff + len(symtab))
	shnum := 4
	if b.NoSymbolTable {
		shnum = 3
	}

	out := make([]byte, 0, shoff+shentsize*shnum)
	out = append(out, 0x7f, 'E', 'L', 'F', byte(class), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT))
	out = pad(out, elf.EI_NIDENT)
	out = le.AppendUint16(out, uint16(typ))
	out = le.AppendUint16(out, uint16(machine))
	out = le.AppendUint32(out, uint32(elf.EV_CURRENT))
	out = le.AppendUint32(out, b.Entry)
	out = le.AppendUint32(out, uint32(phoff))
	out = le.AppendUint32(out, uint32(shoff))
	out = le.AppendUint32(out, 0x05000200) // EABI version 5, soft float
	out = le.AppendUint16(out, ehsize)
	out = le.AppendUint16(out, phentsize)
	out = le.AppendUint16(out, uint16(len(b.Segments)))
	out = le.AppendUint16(out, shentsize)
	out = le.AppendUint16(out, uint16(shnum))
	out = le.AppendUint16(out, 1) // .shstrtab

	for i, s := range b.Segments {
		memsz := s.MemSize
		if memsz == 0 {
			memsz = uint32(len(s.Data))
		}
		out = le.AppendUint32(out, uint32(elf.PT_LOAD))
		out = le.AppendUint32(out, uint32(dataOffsets[i]))
		out = le.AppendUint32(out, s.VAddr)
		out = le.AppendUint32(out, s.VAddr)
		out = le.AppendUint32(out, uint32(len(s.Data)))
		out = le.AppendUint32(out, memsz)
		out = le.AppendUint32(out, uint32(s.Flags))
		out = le.AppendUint32(out, 4)
	}
	for i, s := range b.Segments {
		out = pad(out, dataOffsets[i])
		out = append(out, s.Data...)
	}

	out = pad(out, shstrtabOff)
	out = append(out, shstrtab...)
	out = pad(out, strtabOff)
	out = append(out, strtab...)
	out = pad(out, symtabOff)
	out = append(out, symtab...)
	out = pad(out, shoff)

	section := func(name uint32, typ elf.SectionType, offset, size, link, entsize int) {
		out = le.AppendUint32(out, name)
		out = le.AppendUint32(out, uint32(typ))
		out = le.AppendUint32(out, 0) // flags
		out = le.AppendUint32(out, 0) // addr
		out = le.AppendUint32(out, uint32(offset))
		out = le.AppendUint32(out, uint32(size))
		out = le.AppendUint32(out, uint32(link))
		out = le.AppendUint32(out, 0) // info
		out = le.AppendUint32(out, 1) // addralign
		out = le.AppendUint32(out, uint32(entsize))
	}
	section(0, elf.SHT_NULL, 0, 0, 0, 0)
	section(nameShstrtab, elf.SHT_STRTAB, shstrtabOff, len(shstrtab), 0, 0)
	section(nameStrtab, elf.SHT_STRTAB, strtabOff, len(strtab), 0, 0)
	if !b.NoSymbolTable {
		section(nameSymtab, elf.SHT_SYMTAB, symtabOff, len(symtab), 2, symentsize)
	}
	return out
}

// Words returns n little-endian words counting up from start, handy as
// recognizable segment contents.
func Words(start uint32, n int) []byte {
	b := make([]byte, 0, 4*n)
	for i := range n {
		b = le.AppendUint32(b, start+uint32(i))
	}
	return b
}

// Standard returns a builder for a three-segment plugin at PluginBase with
// 16 bytes of code, 8 bytes of rodata and 8 bytes of data followed by 16
// bytes of BSS.
func Standard() *Builder {
	code := []byte{
		0x00, 0x00, 0xa0, 0xe3, // mov r0, #0
		0x1e, 0xff, 0x2f, 0xe1, // bx lr
		0x01, 0x00, 0xa0, 0xe3, // mov r0, #1
		0x1e, 0xff, 0x2f, 0xe1, // bx lr
	}
	return &Builder{
		Entry: PluginBase,
		Segments: []Segment{
			{Flags: elf.PF_R | elf.PF_X, VAddr: PluginBase, Data: code},
			{Flags: elf.PF_R, VAddr: PluginBase + 0x10, Data: Words(0x524f0000, 2)},
			{Flags: elf.PF_R | elf.PF_W, VAddr: PluginBase + 0x18, Data: Words(0x44410000, 2), MemSize: 0x18},
		},
		Symbols: []Symbol{
			{Name: "$a", Value: PluginBase, Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL},
			{Name: "_start", Value: PluginBase, Size: 8, Type: elf.STT_FUNC, Bind: elf.STB_GLOBAL},
			{Name: "$a", Value: PluginBase + 8, Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL},
			{Name: "main", Value: PluginBase + 8, Size: 8, Type: elf.STT_FUNC, Bind: elf.STB_GLOBAL},
			{Name: "$d", Value: PluginBase + 0x10, Type: elf.STT_NOTYPE, Bind: elf.STB_LOCAL},
			{Name: "table", Value: PluginBase + 0x10, Size: 8, Type: elf.STT_OBJECT, Bind: elf.STB_GLOBAL},
			{Name: "counter", Value: PluginBase + 0x18, Size: 4, Type: elf.STT_OBJECT, Bind: elf.STB_GLOBAL},
			{Name: "plugin.c", Type: elf.STT_FILE, Bind: elf.STB_LOCAL},
			{Name: "", Value: PluginBase, Type: elf.STT_SECTION, Bind: elf.STB_LOCAL},
		},
	}
}

// WriteFile writes data to path, failing the test on error.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	err := os.WriteFile(path, data, 0o600)
	require.NoError(t, err)
}
