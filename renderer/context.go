package renderer

import (
	"fmt"
	"sync"
	"time"

	api "github.com/richinsley/shadertoyarcana/api"
	eval "github.com/richinsley/shadertoyarcana/eval"
	inputs "github.com/richinsley/shadertoyarcana/inputs"
	options "github.com/richinsley/shadertoyarcana/options"
	shader "github.com/richinsley/shadertoyarcana/shader"
)

const sampleRate = 44100

// RenderContext owns one compiled shader and its input channels, and
// produces frames for arbitrary timestamps. All renders on a context are
// serialized; distinct contexts render concurrently.
type RenderContext struct {
	width  int
	height int
	title  string
	fps    float64

	prog     *shader.Program
	channels [4]inputs.IChannel

	mu       sync.Mutex
	frame    int32
	prevTime float64
	started  bool
	closed   bool
	created  time.Time
	mouse    [4]float64

	// diagnostics from the most recent frame
	lastDiag *eval.Diag
}

// newContext compiles the shader and provisions its channels.
func newContext(args *api.ShaderArgs, opts *options.Options) (*RenderContext, error) {
	prog, err := shader.Compile(shader.Assemble(args.CommonCode, args.ShaderCode))
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", args.Title, err)
	}

	channels, err := inputs.GetChannels(args.Inputs, opts)
	if err != nil {
		return nil, fmt.Errorf("provisioning inputs for %s: %w", args.Title, err)
	}

	return &RenderContext{
		width:    opts.Width,
		height:   opts.Height,
		title:    args.Title,
		fps:      float64(opts.FPS),
		prog:     prog,
		channels: channels,
		created:  time.Now(),
	}, nil
}

func (c *RenderContext) Width() int    { return c.width }
func (c *RenderContext) Height() int   { return c.height }
func (c *RenderContext) Title() string { return c.title }

// Frame returns the number of frames rendered so far.
func (c *RenderContext) Frame() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// LastDiag returns the diagnostics of the most recent frame, nil before the
// first render.
func (c *RenderContext) LastDiag() *eval.Diag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDiag
}

// SetMouse updates the iMouse uniform for subsequent frames. Coordinates
// are in pixels with the shader's origin, y up.
func (c *RenderContext) SetMouse(x, y, clickX, clickY float64) {
	c.mu.Lock()
	c.mouse = [4]float64{x, y, clickX, clickY}
	c.mu.Unlock()
}

// RenderFrame evaluates the shader at time t and returns a tightly packed
// RGBA frame, row 0 at the top. The returned buffer is freshly allocated
// each call; the caller owns it.
func (c *RenderContext) RenderFrame(t float64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrInvalidHandle
	}

	delta := 1.0 / c.fps
	if c.started {
		delta = t - c.prevTime
		if delta < 0 {
			delta = 0
		}
	}

	u := eval.Uniforms{
		Resolution: [3]float64{float64(c.width), float64(c.height), 1},
		Time:       t,
		TimeDelta:  delta,
		FrameRate:  c.fps,
		Frame:      c.frame,
		Mouse:      c.mouse,
		Date:       dateUniform(c.created, t),
		SampleRate: sampleRate,
	}

	chanU := inputs.Uniforms{Time: t, Frame: c.frame}
	for i, ch := range c.channels {
		if ch == nil {
			continue
		}
		ch.Update(&chanU)
		u.ChannelTime[i] = t
		res := ch.ChannelRes()
		u.ChannelRes[i] = [3]float64{float64(res[0]), float64(res[1]), float64(res[2])}
	}

	pix, diag, err := eval.Render(c.prog, c.width, c.height, u, c.channels)
	if err != nil {
		return nil, err
	}

	c.lastDiag = diag
	c.prevTime = t
	c.started = true
	c.frame++
	return pix, nil
}

// close releases the channels. Further renders fail.
func (c *RenderContext) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, ch := range c.channels {
		if ch != nil {
			ch.Destroy()
		}
	}
}

// dateUniform derives iDate from the context creation date advanced by the
// frame timestamp, so a run's dates depend only on when the context was
// made, not on when each frame happens to render.
func dateUniform(created time.Time, t float64) [4]float64 {
	at := created.Add(time.Duration(t * float64(time.Second)))
	year, month, day := at.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, at.Location())
	secs := at.Sub(midnight).Seconds()
	return [4]float64{float64(year), float64(month - 1), float64(day), secs}
}
