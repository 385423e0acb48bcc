package threegx

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrTooLarge indicates the container would not be addressable with 32-bit offsets.
var ErrTooLarge = errors.New("container exceeds 4 GiB")

// PositionWriter tracks the absolute output position of everything written
// through it, so offsets can be recorded without seeking.
type PositionWriter struct {
	w   io.Writer
	pos uint64
}

// NewPositionWriter wraps w, which is assumed to be positioned at start.
func NewPositionWriter(w io.Writer, start uint32) *PositionWriter {
	return &PositionWriter{w: w, pos: uint64(start)}
}

func (p *PositionWriter) Write(b []byte) (int, error) {
	if p.pos+uint64(len(b)) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: write of %d bytes at 0x%X", ErrTooLarge, len(b), p.pos)
	}
	n, err := p.w.Write(b)
	p.pos += uint64(n)
	return n, err
}

// Offset returns the current absolute position.
func (p *PositionWriter) Offset() uint32 {
	return uint32(p.pos)
}

// Align writes zero bytes until the position is a multiple of align.
func (p *PositionWriter) Align(align uint32) error {
	rem := p.Offset() % align
	if rem == 0 {
		return nil
	}
	_, err := p.Write(make([]byte, align-rem))
	return err
}

// WriteCString writes s followed by a NUL byte.
func (p *PositionWriter) WriteCString(s string) error {
	if _, err := io.WriteString(p, s); err != nil {
		return err
	}
	_, err := p.Write([]byte{0})
	return err
}
