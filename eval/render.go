package eval

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	inputs "github.com/richinsley/shadertoyarcana/inputs"
	shader "github.com/richinsley/shadertoyarcana/shader"
)

// Uniforms are the per-call inputs every pixel evaluation sees. They are
// built by the caller per frame and never retained.
type Uniforms struct {
	Resolution  [3]float64
	Time        float64
	TimeDelta   float64
	FrameRate   float64
	Frame       int32
	Mouse       [4]float64
	Date        [4]float64
	SampleRate  float64
	ChannelTime [4]float64
	ChannelRes  [4][3]float64
}

// Diag reports per-pixel evaluation faults for one frame. A non-zero fault
// count means those pixels carry the sentinel color; the frame itself still
// rendered.
type Diag struct {
	mu     sync.Mutex
	faults int
	first  string
}

// Faults returns the number of pixels that faulted.
func (d *Diag) Faults() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.faults
}

// First returns the first fault message observed, or "".
func (d *Diag) First() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.first
}

func (d *Diag) record(msg string) {
	d.mu.Lock()
	d.faults++
	if d.first == "" {
		d.first = msg
	}
	d.mu.Unlock()
}

// Render evaluates prog for every pixel of a width x height grid and packs
// the result as tightly strided RGBA8, row 0 at the top. Rows are
// partitioned across the process-wide worker pool; workers write disjoint
// row ranges of the one output buffer, so no synchronization is needed
// beyond the final join.
func Render(prog *shader.Program, width, height int, u Uniforms, channels [4]inputs.IChannel) ([]byte, *Diag, error) {
	if width <= 0 || height <= 0 {
		return nil, nil, fmt.Errorf("eval: invalid frame size %dx%d", width, height)
	}
	buf := make([]byte, width*height*4)
	diag := &Diag{}

	workers := Workers()
	chunk := height / (workers * 4)
	if chunk < 1 {
		chunk = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for row := 0; row < height; row += chunk {
		r0, r1 := row, row+chunk
		if r1 > height {
			r1 = height
		}
		g.Go(func() error {
			ex := newExec(prog, &u, channels)
			for r := r0; r < r1; r++ {
				renderRow(ex, buf, width, height, r, diag)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return buf, diag, nil
}

// renderRow fills one output row. Fragment coordinates keep GL orientation:
// the top buffer row evaluates at y = height-1, sampled at pixel centers.
func renderRow(ex *exec, buf []byte, width, height, row int, diag *Diag) {
	fragY := float64(height-1-row) + 0.5
	base := row * width * 4
	for x := 0; x < width; x++ {
		c, fpanic := evalPixel(ex, float64(x)+0.5, fragY)
		o := base + x*4
		if fpanic != "" {
			diag.record(fpanic)
			buf[o+0] = sentinelR
			buf[o+1] = sentinelG
			buf[o+2] = sentinelB
			buf[o+3] = sentinelA
			continue
		}
		buf[o+0] = quantize(c[0])
		buf[o+1] = quantize(c[1])
		buf[o+2] = quantize(c[2])
		buf[o+3] = quantize(c[3])
	}
}

// evalPixel isolates the per-pixel fault recovery so a runaway pixel
// degrades to the sentinel instead of taking the frame down.
func evalPixel(ex *exec, fragX, fragY float64) (c [4]float64, faultMsg string) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(fault); ok {
				faultMsg = f.msg
				return
			}
			panic(r)
		}
	}()
	c = ex.runPixel(fragX, fragY)
	return c, ""
}

// quantize maps one color component to 8 bits: non-finite values go to
// black, the rest clamp to [0,1] and round half up.
func quantize(c float64) byte {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	if c <= 0 {
		return 0
	}
	if c >= 1 {
		return 255
	}
	return byte(math.Floor(c*255 + 0.5))
}
