// Package sink writes rendered frames to their destination: numbered image
// sequences, a raw RGBA stream, or a contact sheet.
package sink

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	bmp "golang.org/x/image/bmp"
)

// FrameSink consumes rendered frames in order. Frames arrive as tightly
// packed RGBA with row 0 at the top. Implementations must not retain pix
// past the call unless they copy it.
type FrameSink interface {
	WriteFrame(index int, t float64, pix []byte) error
	Close() error
}

// For builds the sink named by format: "png" and "bmp" write numbered
// frames into the output directory, "raw" streams packed RGBA to the
// output file or stdout when output is "-" or empty.
func For(format, output string, width, height int) (FrameSink, error) {
	switch format {
	case "png":
		return NewImageSequence(output, width, height, "png"), nil
	case "bmp":
		return NewImageSequence(output, width, height, "bmp"), nil
	case "raw":
		if output == "" || output == "-" {
			return NewRawStream(nopCloser{os.Stdout}, width, height), nil
		}
		f, err := os.Create(output)
		if err != nil {
			return nil, fmt.Errorf("creating raw output: %w", err)
		}
		return NewRawStream(f, width, height), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// wrapRGBA views a packed frame as an image.Image without copying.
func wrapRGBA(pix []byte, width, height int) *image.RGBA {
	return &image.RGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// ImageSequence writes one encoded image per frame into a directory.
type ImageSequence struct {
	dir    string
	width  int
	height int
	ext    string
	made   bool
}

func NewImageSequence(dir string, width, height int, ext string) *ImageSequence {
	if dir == "" {
		dir = "."
	}
	return &ImageSequence{dir: dir, width: width, height: height, ext: ext}
}

func (s *ImageSequence) WriteFrame(index int, t float64, pix []byte) error {
	if !s.made {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		s.made = true
	}

	path := filepath.Join(s.dir, fmt.Sprintf("frame_%05d.%s", index, s.ext))
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	img := wrapRGBA(pix, s.width, s.height)
	switch s.ext {
	case "bmp":
		err = bmp.Encode(f, img)
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *ImageSequence) Close() error { return nil }

// RawStream writes packed RGBA frames back to back, suitable for piping
// into ffmpeg with -f rawvideo -pix_fmt rgba.
type RawStream struct {
	w         io.WriteCloser
	frameSize int
}

func NewRawStream(w io.WriteCloser, width, height int) *RawStream {
	return &RawStream{w: w, frameSize: width * height * 4}
}

func (s *RawStream) WriteFrame(index int, t float64, pix []byte) error {
	if len(pix) != s.frameSize {
		return fmt.Errorf("frame %d has %d bytes, want %d", index, len(pix), s.frameSize)
	}
	_, err := s.w.Write(pix)
	return err
}

func (s *RawStream) Close() error { return s.w.Close() }

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
