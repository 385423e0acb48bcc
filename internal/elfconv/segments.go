package elfconv

import (
	"debug/elf"
	"fmt"
)

// MaxSegments is the largest number of program headers an image may declare.
const MaxSegments = 3

// MaxImageSpan is the exclusive upper bound of the loaded address span.
const MaxImageSpan = 0x100000

// Role identifies which part of the plugin image a segment holds.
type Role int

// Segment roles, in the only order they may appear.
const (
	RoleCode Role = iota
	RoleRodata
	RoleData
)

func (r Role) String() string {
	switch r {
	case RoleCode:
		return "code"
	case RoleRodata:
		return "rodata"
	case RoleData:
		return "data"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Segment flag combinations mapped to roles.
const (
	flagsCode   = elf.PF_R | elf.PF_X
	flagsRodata = elf.PF_R
	flagsData   = elf.PF_R | elf.PF_W
)

// Segment is the resolved description of one classified program header.
type Segment struct {
	Role       Role
	Index      int // program header index it came from
	FileOffset uint32
	MemAddress uint32
	MemSize    uint32
	FileSize   uint32
}

// BSSSize returns the zero-filled tail of a data segment. Other roles never
// carry one.
func (s Segment) BSSSize() uint32 {
	if s.Role != RoleData {
		return 0
	}
	return s.MemSize - s.FileSize
}

// Layout is the result of segment classification.
type Layout struct {
	// Segments in program header declaration order.
	Segments []Segment
	// Base is the virtual address of the first non-empty segment.
	Base uint32
	// Top is the word-aligned end of the last segment.
	Top uint32
}

// Segment returns the segment holding role, if any.
func (l *Layout) Segment(role Role) (Segment, bool) {
	for _, s := range l.Segments {
		if s.Role == role {
			return s, true
		}
	}
	return Segment{}, false
}

// Span returns Top - Base.
func (l *Layout) Span() uint32 { return l.Top - l.Base }

func align4(v uint32) uint32 {
	return (v + 3) &^ 3
}

func checkSegmentCount(n int) error {
	if n > MaxSegments {
		return layoutErrorf(RuleTooManySegments, "%d program headers, at most %d allowed", n, MaxSegments)
	}
	return nil
}

// ClassifySegments validates program headers against the layout contract and
// assigns each non-empty entry a role. entry is the ELF entry point, which
// must equal the resulting base address.
func ClassifySegments(phdrs []ProgramHeader, entry uint32) (*Layout, error) {
	if err := checkSegmentCount(len(phdrs)); err != nil {
		return nil, err
	}

	layout := &Layout{}
	var seen [RoleData + 1]bool
	started := false

	for i, ph := range phdrs {
		if ph.MemSize == 0 {
			continue
		}

		if !started {
			layout.Base = ph.VAddr
			layout.Top = ph.VAddr
			started = true
		} else if ph.VAddr != layout.Top {
			return nil, layoutErrorf(RuleNonContiguous, "segment %d starts at 0x%08X, expected 0x%08X", i, ph.VAddr, layout.Top)
		}

		if ph.MemSize%4 != 0 {
			return nil, &AlignmentError{Index: i, Field: "memory size", Value: ph.MemSize}
		}
		if ph.Flags != flagsData && ph.FileSize != ph.MemSize {
			return nil, layoutErrorf(RuleUnexpectedBSS, "segment %d with flags %d has file size 0x%X and memory size 0x%X, only the data segment may have a BSS",
				i, uint32(ph.Flags), ph.FileSize, ph.MemSize)
		}
		if ph.FileSize > ph.MemSize {
			return nil, layoutErrorf(RuleUnexpectedBSS, "segment %d file size 0x%X exceeds memory size 0x%X", i, ph.FileSize, ph.MemSize)
		}
		if ph.FileSize%4 != 0 {
			return nil, &AlignmentError{Index: i, Field: "file size", Value: ph.FileSize}
		}

		role, err := segmentRole(i, ph.Flags)
		if err != nil {
			return nil, err
		}
		if seen[role] {
			return nil, layoutErrorf(RuleDuplicateSegment, "segment %d is a second %s segment", i, role)
		}
		if err := checkOrdering(i, role, seen); err != nil {
			return nil, err
		}
		seen[role] = true

		layout.Segments = append(layout.Segments, Segment{
			Role:       role,
			Index:      i,
			FileOffset: ph.Offset,
			MemAddress: ph.VAddr,
			MemSize:    ph.MemSize,
			FileSize:   ph.FileSize,
		})
		layout.Top = ph.VAddr + align4(ph.MemSize)
	}

	if len(layout.Segments) == 0 {
		return nil, layoutErrorf(RuleNoSegments, "%d program headers, none with a non-zero memory size", len(phdrs))
	}
	if layout.Span() >= MaxImageSpan {
		return nil, layoutErrorf(RuleImageTooLarge, "address span 0x%X must be below 0x%X", layout.Span(), MaxImageSpan)
	}
	if entry != layout.Base {
		return nil, layoutErrorf(RuleBadEntryPoint, "entry point 0x%08X is not the image base 0x%08X", entry, layout.Base)
	}
	return layout, nil
}

func segmentRole(index int, flags elf.ProgFlag) (Role, error) {
	switch flags {
	case flagsCode:
		return RoleCode, nil
	case flagsRodata:
		return RoleRodata, nil
	case flagsData:
		return RoleData, nil
	default:
		return 0, layoutErrorf(RuleInvalidSegment, "segment %d has flags %d, expected 5 (code), 4 (rodata) or 6 (data)", index, uint32(flags))
	}
}

// checkOrdering enforces code, then rodata, then data.
func checkOrdering(index int, role Role, seen [RoleData + 1]bool) error {
	switch role {
	case RoleCode:
		if seen[RoleRodata] || seen[RoleData] {
			return layoutErrorf(RuleOrdering, "segment %d: code segment must be the first", index)
		}
	case RoleRodata:
		if seen[RoleData] {
			return layoutErrorf(RuleOrdering, "segment %d: rodata segment must precede the data segment", index)
		}
	}
	return nil
}
