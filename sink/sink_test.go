package sink

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bmp "golang.org/x/image/bmp"
)

func solidFrame(width, height int, r, g, b byte) []byte {
	pix := make([]byte, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = r
		pix[i+1] = g
		pix[i+2] = b
		pix[i+3] = 255
	}
	return pix
}

func TestImageSequencePNG(t *testing.T) {
	dir := t.TempDir()
	s := NewImageSequence(dir, 4, 3, "png")

	require.NoError(t, s.WriteFrame(0, 0.0, solidFrame(4, 3, 255, 0, 0)))
	require.NoError(t, s.WriteFrame(1, 0.033, solidFrame(4, 3, 0, 255, 0)))
	require.NoError(t, s.Close())

	f, err := os.Open(filepath.Join(dir, "frame_00001.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	r, g, _, _ := img.At(2, 1).RGBA()
	assert.Zero(t, r)
	assert.Equal(t, uint32(0xffff), g)
}

func TestImageSequenceBMP(t *testing.T) {
	dir := t.TempDir()
	s := NewImageSequence(dir, 2, 2, "bmp")
	require.NoError(t, s.WriteFrame(0, 0.0, solidFrame(2, 2, 0, 0, 255)))

	f, err := os.Open(filepath.Join(dir, "frame_00000.bmp"))
	require.NoError(t, err)
	defer f.Close()
	img, err := bmp.Decode(f)
	require.NoError(t, err)
	_, _, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

type memWriter struct {
	bytes.Buffer
	closed bool
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

func TestRawStream(t *testing.T) {
	w := &memWriter{}
	s := NewRawStream(w, 2, 2)

	frame := solidFrame(2, 2, 1, 2, 3)
	require.NoError(t, s.WriteFrame(0, 0.0, frame))
	require.NoError(t, s.WriteFrame(1, 0.033, frame))
	require.NoError(t, s.Close())

	assert.True(t, w.closed)
	assert.Equal(t, 2*2*4*2, w.Len())
	assert.Equal(t, frame, w.Bytes()[:16])
}

func TestRawStreamSizeMismatch(t *testing.T) {
	s := NewRawStream(&memWriter{}, 2, 2)
	assert.Error(t, s.WriteFrame(0, 0.0, make([]byte, 7)))
}

func TestForUnknownFormat(t *testing.T) {
	_, err := For("gif", "", 2, 2)
	assert.Error(t, err)
}

func TestContactSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.png")
	s := NewContactSheet(path, 4, 4, 2, 2)

	for i := 0; i < 6; i++ {
		require.NoError(t, s.WriteFrame(i, float64(i)/30, solidFrame(4, 4, byte(40*i), 0, 0)))
	}
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	// 3 kept frames (0, 2, 4) in 2 columns leaves a 2x2 grid footprint.
	assert.Greater(t, img.Bounds().Dx(), 2*4)
	assert.Greater(t, img.Bounds().Dy(), 2*4)
}

func TestContactSheetEmpty(t *testing.T) {
	s := NewContactSheet(filepath.Join(t.TempDir(), "sheet.png"), 4, 4, 1, 0)
	assert.Error(t, s.Close())
}
