package elfconv

import (
	"debug/elf"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	elfconvtesting "github.com/isseis/go-3gxtool/internal/elfconv/testing"
	"github.com/isseis/go-3gxtool/internal/threegx"
)

func TestDecodeAt(t *testing.T) {
	img, err := Load(elfconvtesting.Standard().Build())
	require.NoError(t, err)

	entry, err := img.EntryInstruction()
	require.NoError(t, err)
	assert.Equal(t, uint32(elfconvtesting.PluginBase), entry.Address)
	assert.Equal(t, []byte{0x00, 0x00, 0xa0, 0xe3}, entry.Raw)
	assert.Contains(t, strings.ToLower(entry.Text), "mov")
	assert.False(t, entry.IsBranch())

	ret, err := img.DecodeAt(elfconvtesting.PluginBase + 4)
	require.NoError(t, err)
	assert.True(t, ret.IsBranch(), "bx lr is a branch: %s", ret.Text)
}

func TestDecodeAt_OutsideCode(t *testing.T) {
	img, err := Load(elfconvtesting.Standard().Build())
	require.NoError(t, err)

	for _, addr := range []uint32{
		elfconvtesting.PluginBase - 4,
		elfconvtesting.PluginBase + 0x10, // rodata
		elfconvtesting.PluginBase + 0x0e, // straddles the end of code
	} {
		_, err := img.DecodeAt(addr)
		assert.ErrorIs(t, err, ErrAddressNotMapped, "address 0x%08X", addr)
	}
}

func TestDecodeSymbol_Thumb(t *testing.T) {
	img, err := Load(elfconvtesting.Standard().Build())
	require.NoError(t, err)

	_, err = img.DecodeSymbol(threegx.Symbol{Address: elfconvtesting.PluginBase, Flags: threegx.SymFunction | threegx.SymThumb})
	assert.ErrorIs(t, err, ErrThumbNotSupported)
}

func TestDecodeAt_NoCodeSegment(t *testing.T) {
	b := &elfconvtesting.Builder{
		Entry: elfconvtesting.PluginBase,
		Segments: []elfconvtesting.Segment{
			{Flags: elf.PF_R | elf.PF_W, VAddr: elfconvtesting.PluginBase, Data: make([]byte, 8)},
		},
	}
	img, err := Load(b.Build())
	require.NoError(t, err)

	_, err = img.EntryInstruction()
	assert.ErrorIs(t, err, ErrAddressNotMapped)
}
