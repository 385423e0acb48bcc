package elfconv

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"

	"github.com/isseis/go-3gxtool/internal/threegx"
)

// armInstructionSize is the size of one ARM-mode instruction.
const armInstructionSize = 4

// Static errors for instruction decoding.
var (
	// ErrThumbNotSupported indicates a Thumb symbol was passed to the ARM decoder.
	ErrThumbNotSupported = errors.New("thumb instructions are not decoded")

	// ErrAddressNotMapped indicates the address lies outside the code segment.
	ErrAddressNotMapped = errors.New("address is not inside the code segment")
)

// DecodedInstruction is one decoded ARM instruction.
type DecodedInstruction struct {
	// Address is the virtual address of the instruction.
	Address uint32

	// Op is the instruction opcode (e.g., B, LDR).
	Op armasm.Op

	// Text is the instruction in GNU assembler syntax.
	Text string

	// Raw contains the raw instruction bytes.
	Raw []byte
}

// IsBranch reports whether the instruction is an unconditional or
// conditional branch, with or without link or exchange.
func (d DecodedInstruction) IsBranch() bool {
	base, _, _ := strings.Cut(d.Op.String(), ".")
	switch base {
	case "B", "BL", "BX", "BLX":
		return true
	}
	return false
}

// DecodeAt decodes the ARM instruction at virtual address addr of the code
// segment.
func (img *Image) DecodeAt(addr uint32) (DecodedInstruction, error) {
	seg, ok := img.layout.Segment(RoleCode)
	if !ok || addr < seg.MemAddress || uint64(addr-seg.MemAddress)+armInstructionSize > uint64(seg.FileSize) {
		return DecodedInstruction{}, fmt.Errorf("%w: 0x%08X", ErrAddressNotMapped, addr)
	}
	code := img.SegmentData(RoleCode)[addr-seg.MemAddress:]

	inst, err := armasm.Decode(code, armasm.ModeARM)
	if err != nil {
		return DecodedInstruction{}, fmt.Errorf("failed to decode instruction at 0x%08X: %w", addr, err)
	}
	return DecodedInstruction{
		Address: addr,
		Op:      inst.Op,
		Text:    armasm.GNUSyntax(inst),
		Raw:     code[:inst.Len],
	}, nil
}

// DecodeSymbol decodes the first instruction of a function symbol.
func (img *Image) DecodeSymbol(sym threegx.Symbol) (DecodedInstruction, error) {
	if sym.IsThumb() {
		return DecodedInstruction{}, ErrThumbNotSupported
	}
	return img.DecodeAt(sym.Address)
}

// EntryInstruction decodes the instruction at the entry point.
func (img *Image) EntryInstruction() (DecodedInstruction, error) {
	return img.DecodeAt(img.hdr.entry)
}
