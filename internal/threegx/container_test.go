package threegx

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayload struct {
	data []byte
	err  error
}

func (p *fakePayload) WriteContainer(w *PositionWriter, hdr *Header, _ bool) error {
	if p.err != nil {
		return p.err
	}
	if err := w.Align(8); err != nil {
		return err
	}
	hdr.Executable.CodeOffset = w.Offset()
	hdr.Executable.CodeSize = uint32(len(p.data))
	_, err := w.Write(p.data)
	return err
}

func TestPositionWriter(t *testing.T) {
	var sink []byte
	w := NewPositionWriter(writerFunc(func(b []byte) (int, error) {
		sink = append(sink, b...)
		return len(b), nil
	}), 3)

	require.NoError(t, w.Align(4))
	assert.Equal(t, uint32(4), w.Offset())
	require.NoError(t, w.Align(4))
	assert.Equal(t, uint32(4), w.Offset(), "aligned position is unchanged")

	require.NoError(t, w.WriteCString("ab"))
	assert.Equal(t, uint32(7), w.Offset())
	assert.Equal(t, []byte{0, 'a', 'b', 0}, sink)
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }

func TestBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.3gx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	hdr := NewHeader(Version{Major: 1})
	info := Info{
		Author:  "me",
		Title:   "Plugin",
		Flags:   FlagSwapNotNeeded,
		Targets: []uint32{0x00055D00, 0x0011C400},
	}
	payload := &fakePayload{data: []byte{1, 2, 3, 4}}
	require.NoError(t, Build(f, hdr, info, payload, true))

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	raw, err := io.ReadAll(f)
	require.NoError(t, err)

	var got Header
	require.NoError(t, got.UnmarshalBinary(raw))
	assert.Equal(t, *hdr, got)

	assert.Equal(t, uint32(HeaderSize), got.Infos.AuthorOffset)
	assert.Equal(t, uint32(3), got.Infos.AuthorLen)
	assert.Equal(t, "me\x00", string(raw[got.Infos.AuthorOffset:got.Infos.AuthorOffset+got.Infos.AuthorLen]))
	assert.Equal(t, "Plugin\x00", string(raw[got.Infos.TitleOffset:got.Infos.TitleOffset+got.Infos.TitleLen]))
	assert.Equal(t, uint32(1), got.Infos.SummaryLen, "empty string still has its terminator")
	assert.Equal(t, FlagSwapNotNeeded, got.Infos.Flags)

	require.Equal(t, uint32(2), got.Targets.Count)
	assert.Zero(t, got.Targets.TitlesOffset%4)
	assert.Equal(t, uint32(0x0011C400), binary.LittleEndian.Uint32(raw[got.Targets.TitlesOffset+4:]))

	assert.Zero(t, got.Executable.CodeOffset%8)
	assert.Equal(t, []byte{1, 2, 3, 4}, raw[got.Executable.CodeOffset:])
}

func TestBuild_NoTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.3gx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	hdr := NewHeader(Version{})
	require.NoError(t, Build(f, hdr, Info{Title: "x"}, &fakePayload{}, false))
	assert.Zero(t, hdr.Targets.Count)
	assert.Zero(t, hdr.Targets.TitlesOffset)
}

func TestBuild_PayloadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.3gx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	errPayload := errors.New("payload failed")
	err = Build(f, NewHeader(Version{}), Info{}, &fakePayload{err: errPayload}, true)
	assert.ErrorIs(t, err, errPayload)
}
