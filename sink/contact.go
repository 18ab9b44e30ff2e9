package sink

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
)

// ContactSheet collects frames and composes them into a single labeled
// grid image on Close. Useful for eyeballing a shader's evolution without
// scrubbing a sequence.
type ContactSheet struct {
	path   string
	width  int
	height int
	every  int // keep every Nth frame
	cols   int

	frames []sheetFrame
}

type sheetFrame struct {
	index int
	t     float64
	pix   []byte
}

// NewContactSheet keeps every Nth frame and writes the sheet to path as
// PNG. cols fixes the grid width; 0 picks a near-square layout.
func NewContactSheet(path string, width, height, every, cols int) *ContactSheet {
	if every < 1 {
		every = 1
	}
	return &ContactSheet{path: path, width: width, height: height, every: every, cols: cols}
}

func (s *ContactSheet) WriteFrame(index int, t float64, pix []byte) error {
	if index%s.every != 0 {
		return nil
	}
	kept := make([]byte, len(pix))
	copy(kept, pix)
	s.frames = append(s.frames, sheetFrame{index: index, t: t, pix: kept})
	return nil
}

const sheetMargin = 8
const sheetCaption = 16

func (s *ContactSheet) Close() error {
	if len(s.frames) == 0 {
		return fmt.Errorf("contact sheet has no frames")
	}

	cols := s.cols
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(len(s.frames)))))
	}
	rows := (len(s.frames) + cols - 1) / cols

	cellW := s.width + sheetMargin
	cellH := s.height + sheetCaption + sheetMargin

	dc := gg.NewContext(cols*cellW+sheetMargin, rows*cellH+sheetMargin)
	dc.SetRGB(0.12, 0.12, 0.12)
	dc.Clear()

	for i, f := range s.frames {
		col := i % cols
		row := i / cols
		x := sheetMargin + col*cellW
		y := sheetMargin + row*cellH

		dc.DrawImage(wrapRGBA(f.pix, s.width, s.height), x, y)

		dc.SetRGB(0.85, 0.85, 0.85)
		caption := fmt.Sprintf("#%d  t=%.2fs", f.index, f.t)
		dc.DrawString(caption, float64(x), float64(y+s.height+sheetCaption-4))
	}

	return dc.SavePNG(s.path)
}
