// Package threegx defines the on-disk layout of 3GX plugin images: the fixed
// header, the plugin information block, the executable and symbol table
// descriptors, and the symbol record format.
package threegx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic identifies a version 2 3GX file.
const Magic = "3GX$0002"

// HeaderSize is the encoded size of Header.
const HeaderSize = 0x70

// ErrBadMagic indicates the data does not start with Magic.
var ErrBadMagic = errors.New("not a 3GX file")

// Version is the plugin version shown by the loader.
type Version struct {
	Major    uint8
	Minor    uint8
	Revision uint8
}

// Packed returns the version as stored in the header.
func (v Version) Packed() uint32 {
	return uint32(v.Major)<<24 | uint32(v.Minor)<<16 | uint32(v.Revision)<<8
}

// UnpackVersion is the inverse of Version.Packed.
func UnpackVersion(v uint32) Version {
	return Version{Major: uint8(v >> 24), Minor: uint8(v >> 16), Revision: uint8(v >> 8)}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Infos locates the plugin description strings and carries loader flags.
// Lengths include the terminating NUL.
type Infos struct {
	AuthorLen         uint32
	AuthorOffset      uint32
	TitleLen          uint32
	TitleOffset       uint32
	SummaryLen        uint32
	SummaryOffset     uint32
	DescriptionLen    uint32
	DescriptionOffset uint32
	Flags             InfoFlags
	ExeLoadChecksum   uint32
}

// Executable locates the three segments. Sizes are memory sizes except for
// DataSize, which counts only the file-resident part of the data segment.
type Executable struct {
	CodeOffset   uint32
	RodataOffset uint32
	DataOffset   uint32
	CodeSize     uint32
	RodataSize   uint32
	DataSize     uint32
	BssSize      uint32
}

// Targets locates the list of compatible title IDs.
type Targets struct {
	Count        uint32
	TitlesOffset uint32
}

// Symtable locates the symbol records and their name table. Both offsets are
// zero when symbols are not embedded.
type Symtable struct {
	Count           uint32
	SymbolsOffset   uint32
	NameTableOffset uint32
}

// Header is the fixed structure at offset 0 of a 3GX file. All offsets are
// absolute from the start of the file.
type Header struct {
	Magic      [8]byte
	Version    uint32
	Reserved   uint32
	Infos      Infos
	Executable Executable
	Targets    Targets
	Symtable   Symtable
	_          [8]byte
}

// NewHeader returns a header with the magic and version filled in.
func NewHeader(v Version) *Header {
	h := &Header{Version: v.Packed()}
	copy(h.Magic[:], Magic)
	return h
}

// MarshalBinary encodes the header in little-endian order.
func (h *Header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a header and checks its magic.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the %d byte header", ErrBadMagic, len(data), HeaderSize)
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, h); err != nil {
		return fmt.Errorf("failed to decode header: %w", err)
	}
	if string(h.Magic[:]) != Magic {
		return fmt.Errorf("%w: magic %q", ErrBadMagic, h.Magic[:])
	}
	return nil
}
