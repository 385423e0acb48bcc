package elfconv

import (
	"fmt"

	"github.com/isseis/go-3gxtool/internal/threegx"
)

// codeAlignment is the required file alignment of the code segment.
const codeAlignment = 8

// WriteContainer writes the segments and, when writeSymbols is set, the
// symbol table and name table at w's current position, and records sizes
// and absolute offsets in hdr. The BSS tail of the data segment is only
// counted, never written.
func (img *Image) WriteContainer(w *threegx.PositionWriter, hdr *threegx.Header, writeSymbols bool) error {
	exec := &hdr.Executable
	*exec = threegx.Executable{}
	if seg, ok := img.layout.Segment(RoleCode); ok {
		exec.CodeSize = seg.MemSize
	}
	if seg, ok := img.layout.Segment(RoleRodata); ok {
		exec.RodataSize = seg.MemSize
	}
	if seg, ok := img.layout.Segment(RoleData); ok {
		exec.DataSize = seg.FileSize
		exec.BssSize = seg.BSSSize()
	}

	if err := w.Align(codeAlignment); err != nil {
		return &IoError{Msg: "failed to pad code segment", Err: err}
	}
	exec.CodeOffset = w.Offset()
	if err := img.writeSegment(w, RoleCode); err != nil {
		return err
	}
	exec.RodataOffset = w.Offset()
	if err := img.writeSegment(w, RoleRodata); err != nil {
		return err
	}
	exec.DataOffset = w.Offset()
	if err := img.writeSegment(w, RoleData); err != nil {
		return err
	}

	hdr.Symtable = threegx.Symtable{}
	if !writeSymbols {
		return nil
	}

	hdr.Symtable.Count = uint32(len(img.symbols))
	hdr.Symtable.SymbolsOffset = w.Offset()
	if err := threegx.WriteSymbols(w, img.symbols); err != nil {
		return &IoError{Msg: "failed to write symbols", Err: err}
	}

	hdr.Symtable.NameTableOffset = w.Offset()
	for i, sym := range img.symbols {
		name, err := img.names.Lookup(sym.NameOffset)
		if err != nil {
			return fmt.Errorf("symbol %d: %w", i, err)
		}
		if err := w.WriteCString(name); err != nil {
			return &IoError{Msg: "failed to write symbol names", Err: err}
		}
	}
	return nil
}

func (img *Image) writeSegment(w *threegx.PositionWriter, role Role) error {
	data := img.SegmentData(role)
	if len(data) == 0 {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return &IoError{Msg: fmt.Sprintf("failed to write %s segment", role), Err: err}
	}
	return nil
}
