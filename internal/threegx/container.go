package threegx

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Info is the descriptive part of a plugin image.
type Info struct {
	Author      string
	Title       string
	Summary     string
	Description string
	Flags       InfoFlags
	Targets     []uint32
}

// Payload writes the executable part of a container at the writer's current
// position and records the resulting sizes and offsets in hdr.
type Payload interface {
	WriteContainer(w *PositionWriter, hdr *Header, writeSymbols bool) error
}

// WriteInfo writes the description strings and the target list, recording
// their offsets in hdr.
func WriteInfo(w *PositionWriter, hdr *Header, info Info) error {
	fields := []struct {
		value  string
		length *uint32
		offset *uint32
	}{
		{info.Author, &hdr.Infos.AuthorLen, &hdr.Infos.AuthorOffset},
		{info.Title, &hdr.Infos.TitleLen, &hdr.Infos.TitleOffset},
		{info.Summary, &hdr.Infos.SummaryLen, &hdr.Infos.SummaryOffset},
		{info.Description, &hdr.Infos.DescriptionLen, &hdr.Infos.DescriptionOffset},
	}
	for _, f := range fields {
		*f.offset = w.Offset()
		*f.length = uint32(len(f.value)) + 1
		if err := w.WriteCString(f.value); err != nil {
			return fmt.Errorf("failed to write plugin information: %w", err)
		}
	}
	hdr.Infos.Flags = info.Flags

	if err := w.Align(4); err != nil {
		return fmt.Errorf("failed to align target list: %w", err)
	}
	hdr.Targets.Count = uint32(len(info.Targets))
	hdr.Targets.TitlesOffset = 0
	if len(info.Targets) > 0 {
		hdr.Targets.TitlesOffset = w.Offset()
		if err := binary.Write(w, binary.LittleEndian, info.Targets); err != nil {
			return fmt.Errorf("failed to write target list: %w", err)
		}
	}
	return nil
}

// Build writes a complete container to ws: a placeholder header, the
// plugin information, the payload, and finally the filled-in header at
// offset 0. ws must be positioned at offset 0.
func Build(ws io.WriteSeeker, hdr *Header, info Info, payload Payload, writeSymbols bool) error {
	w := NewPositionWriter(ws, 0)
	if _, err := w.Write(make([]byte, HeaderSize)); err != nil {
		return fmt.Errorf("failed to reserve header: %w", err)
	}
	if err := WriteInfo(w, hdr, info); err != nil {
		return err
	}
	if err := payload.WriteContainer(w, hdr, writeSymbols); err != nil {
		return err
	}

	raw, err := hdr.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := ws.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind to header: %w", err)
	}
	if _, err := ws.Write(raw); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}
