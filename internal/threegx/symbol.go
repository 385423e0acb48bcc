package threegx

import (
	"encoding/binary"
	"io"
	"strings"
)

// SymbolSize is the encoded size of one Symbol record.
const SymbolSize = 16

// Symbol flag bits. A symbol without SymFunction is data.
const (
	SymData     uint16 = 0
	SymFunction uint16 = 1 << 0
	SymThumb    uint16 = 1 << 1
	SymAltName  uint16 = 1 << 2
)

// Symbol is one record of the symbol table. NameOffset is relative to the
// start of the name table, not to the file.
type Symbol struct {
	Address    uint32
	Size       uint32
	Flags      uint16
	_          uint16
	NameOffset uint32
}

// IsFunction reports whether the symbol was classified as code.
func (s Symbol) IsFunction() bool { return s.Flags&SymFunction != 0 }

// IsThumb reports whether the symbol is Thumb code.
func (s Symbol) IsThumb() bool { return s.Flags&SymThumb != 0 }

// IsAltName reports whether the symbol aliases the previous symbol's address.
func (s Symbol) IsAltName() bool { return s.Flags&SymAltName != 0 }

// FlagString renders the flags as a short mnemonic: F (function), T (thumb),
// A (alternate name), or "-" for plain data.
func (s Symbol) FlagString() string {
	var sb strings.Builder
	if s.IsFunction() {
		sb.WriteByte('F')
	}
	if s.IsThumb() {
		sb.WriteByte('T')
	}
	if s.IsAltName() {
		sb.WriteByte('A')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// WriteSymbols encodes records back to back.
func WriteSymbols(w io.Writer, syms []Symbol) error {
	if len(syms) == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, syms)
}

// ReadSymbols decodes n records from r.
func ReadSymbols(r io.Reader, n int) ([]Symbol, error) {
	syms := make([]Symbol, n)
	if n == 0 {
		return syms, nil
	}
	if err := binary.Read(r, binary.LittleEndian, syms); err != nil {
		return nil, err
	}
	return syms, nil
}
