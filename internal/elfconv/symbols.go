package elfconv

import (
	"cmp"
	"debug/elf"
	"fmt"
	"slices"

	"github.com/isseis/go-3gxtool/internal/threegx"
)

// descriptorPrefix starts every mapping symbol ($a, $t, $d, ...).
const descriptorPrefix = '$'

// elfSymbol is a decoded ELF32 symbol table entry with its name resolved.
type elfSymbol struct {
	name  string
	value uint32
	size  uint32
	info  uint8
	other uint8
}

func (s elfSymbol) typ() elf.SymType { return elf.ST_TYPE(s.info) }

// isDescriptor reports whether the symbol is a two-character mapping symbol
// such as $a or $d.
func (s elfSymbol) isDescriptor() bool {
	return len(s.name) == 2 && s.name[0] == descriptorPrefix
}

// NameTable holds the NUL-terminated names of the emitted symbols. It only
// grows while symbols are extracted and is read-only afterwards.
type NameTable struct {
	buf []byte
}

// append stores name and returns its offset.
func (t *NameTable) append(name string) uint32 {
	off := uint32(len(t.buf))
	t.buf = append(t.buf, name...)
	t.buf = append(t.buf, 0)
	return off
}

// Len returns the size of the table in bytes.
func (t *NameTable) Len() int { return len(t.buf) }

// Lookup returns the name stored at off.
func (t *NameTable) Lookup(off uint32) (string, error) {
	name, err := reader{data: t.buf}.cstring(uint64(off))
	if err != nil {
		return "", fmt.Errorf("name table: %w", err)
	}
	return name, nil
}

// findSymbolTable locates the SHT_SYMTAB section and the string table it links to.
func findSymbolTable(sections []SectionHeader) (symtab, strtab SectionHeader, err error) {
	idx := slices.IndexFunc(sections, func(sh SectionHeader) bool { return sh.Type == elf.SHT_SYMTAB })
	if idx < 0 {
		return SectionHeader{}, SectionHeader{}, formatErrorf("no symbol table")
	}
	symtab = sections[idx]
	if int(symtab.Link) >= len(sections) {
		return SectionHeader{}, SectionHeader{}, formatErrorf("symbol table links to section %d, only %d sections", symtab.Link, len(sections))
	}
	return symtab, sections[symtab.Link], nil
}

// readSymbols decodes the entries of symtab, skipping file and section
// symbols.
func readSymbols(r reader, symtab, strtab SectionHeader) ([]elfSymbol, error) {
	entries, err := r.sub(uint64(symtab.Offset), uint64(symtab.Size))
	if err != nil {
		return nil, formatErrorf("symbol table: %v", err)
	}
	names, err := r.sub(uint64(strtab.Offset), uint64(strtab.Size))
	if err != nil {
		return nil, formatErrorf("symbol string table: %v", err)
	}

	count := entries.size() / symbolEntrySize
	syms := make([]elfSymbol, 0, count)
	// Entry 0 is the reserved undefined symbol.
	for i := uint64(1); i < count; i++ {
		f := fieldReader{r: entries, base: i * symbolEntrySize}
		nameOff := f.u32(0)
		sym := elfSymbol{
			value: f.u32(4),
			size:  f.u32(8),
			info:  f.u8(12),
			other: f.u8(13),
		}
		if f.err != nil {
			return nil, formatErrorf("symbol %d: %v", i, f.err)
		}
		if t := sym.typ(); t == elf.STT_FILE || t == elf.STT_SECTION {
			continue
		}
		if sym.name, err = names.cstring(uint64(nameOff)); err != nil {
			return nil, formatErrorf("symbol %d name: %v", i, err)
		}
		syms = append(syms, sym)
	}
	return syms, nil
}

// sortSymbols orders symbols by address. At equal addresses a mapping symbol
// comes before the symbol it describes. Mapping symbols keep table order
// among themselves; other symbols at one address are ordered by name, size,
// info and other so that exact duplicates end up adjacent.
func sortSymbols(syms []elfSymbol) {
	slices.SortStableFunc(syms, func(a, b elfSymbol) int {
		if c := cmp.Compare(a.value, b.value); c != 0 {
			return c
		}
		aDesc := len(a.name) > 0 && a.name[0] == descriptorPrefix
		bDesc := len(b.name) > 0 && b.name[0] == descriptorPrefix
		switch {
		case aDesc && !bDesc:
			return -1
		case !aDesc && bDesc:
			return 1
		case aDesc && bDesc:
			return 0
		}
		return cmp.Or(
			cmp.Compare(a.name, b.name),
			cmp.Compare(a.size, b.size),
			cmp.Compare(a.info, b.info),
			cmp.Compare(a.other, b.other),
		)
	})
}

// dedupSymbols collapses consecutive entries that are identical in every field.
func dedupSymbols(syms []elfSymbol) []elfSymbol {
	return slices.Compact(syms)
}

// classifySymbols turns the sorted list into output records. A mapping
// symbol sets the type of the next symbol only when that symbol shares its
// address; otherwise, including when it is last, it is dropped.
func classifySymbols(syms []elfSymbol) ([]threegx.Symbol, *NameTable) {
	names := &NameTable{}
	out := make([]threegx.Symbol, 0, len(syms))

	var (
		pending     = threegx.SymData
		lastAddr    uint32
		haveEmitted bool
	)
	for i, cur := range syms {
		if cur.isDescriptor() {
			hasNext := i+1 < len(syms)
			if !hasNext || syms[i+1].value != cur.value {
				continue
			}
			switch cur.name[1] {
			case 'a', 'p':
				pending = threegx.SymFunction
			case 'b', 't':
				pending = threegx.SymFunction | threegx.SymThumb
			case 'd':
				pending = threegx.SymData
			}
			continue
		}

		flags := pending
		if haveEmitted && cur.value == lastAddr {
			flags |= threegx.SymAltName
		}
		out = append(out, threegx.Symbol{
			Address:    cur.value,
			Size:       cur.size,
			Flags:      flags,
			NameOffset: names.append(cur.name),
		})
		pending = threegx.SymData
		lastAddr = cur.value
		haveEmitted = true
	}
	return out, names
}

// extractSymbols runs the full symbol pipeline over the image.
func extractSymbols(r reader, sections []SectionHeader) ([]threegx.Symbol, *NameTable, error) {
	symtab, strtab, err := findSymbolTable(sections)
	if err != nil {
		return nil, nil, err
	}
	syms, err := readSymbols(r, symtab, strtab)
	if err != nil {
		return nil, nil, err
	}
	sortSymbols(syms)
	syms = dedupSymbols(syms)
	out, names := classifySymbols(syms)
	return out, names, nil
}
