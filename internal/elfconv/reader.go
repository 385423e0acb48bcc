package elfconv

import (
	"bytes"
	"encoding/binary"
)

// reader decodes little-endian fields from an owned byte buffer. Every access
// is bounds checked and reports a FormatError instead of panicking.
type reader struct {
	data []byte
}

func (r reader) size() uint64 { return uint64(len(r.data)) }

// slice returns the n bytes at off. The returned slice aliases the buffer.
func (r reader) slice(off, n uint64) ([]byte, error) {
	if off > r.size() || n > r.size()-off {
		return nil, formatErrorf("read of %d bytes at offset 0x%X runs past end of image (size 0x%X)", n, off, r.size())
	}
	return r.data[off : off+n : off+n], nil
}

// sub returns a reader restricted to [off, off+n).
func (r reader) sub(off, n uint64) (reader, error) {
	b, err := r.slice(off, n)
	if err != nil {
		return reader{}, err
	}
	return reader{data: b}, nil
}

func (r reader) u8(off uint64) (uint8, error) {
	b, err := r.slice(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r reader) u16(off uint64) (uint16, error) {
	b, err := r.slice(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r reader) u32(off uint64) (uint32, error) {
	b, err := r.slice(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// cstring returns the NUL-terminated string starting at off.
func (r reader) cstring(off uint64) (string, error) {
	if off >= r.size() {
		return "", formatErrorf("string offset 0x%X outside table of size 0x%X", off, r.size())
	}
	rest := r.data[off:]
	n := bytes.IndexByte(rest, 0)
	if n < 0 {
		return "", formatErrorf("unterminated string at offset 0x%X", off)
	}
	return string(rest[:n]), nil
}

// fieldReader accumulates the first error across a run of field reads so a
// record can be decoded without checking every field individually.
type fieldReader struct {
	r    reader
	base uint64
	err  error
}

func (f *fieldReader) u8(off uint64) uint8 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.u8(f.base + off)
	f.err = err
	return v
}

func (f *fieldReader) u16(off uint64) uint16 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.u16(f.base + off)
	f.err = err
	return v
}

func (f *fieldReader) u32(off uint64) uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.u32(f.base + off)
	f.err = err
	return v
}
