package renderer

import (
	"context"
	"fmt"
	"os"

	isatty "github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	arcana "github.com/richinsley/shadertoyarcana"
	options "github.com/richinsley/shadertoyarcana/options"
	sink "github.com/richinsley/shadertoyarcana/sink"
)

// Frame is one rendered frame in flight between the renderer and the sink.
type Frame struct {
	Index int
	Time  float64
	Pix   []byte
}

// Run renders the sequence described by opts and hands every frame to s.
// Rendering and sinking overlap through a small channel so a slow encoder
// does not stall the evaluator. When opts.Realtime is set, production is
// paced to the configured frame rate.
func Run(ctx context.Context, rc *RenderContext, opts *options.Options, s sink.FrameSink) error {
	total := opts.FrameCount()
	fps := float64(opts.FPS)

	var limiter *rate.Limiter
	if opts.Realtime {
		limiter = rate.NewLimiter(rate.Limit(fps), 1)
	}

	progress := isatty.IsTerminal(os.Stderr.Fd())

	frames := make(chan Frame, 2)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(frames)
		for i := 0; total == 0 || i < total; i++ {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			t := float64(i) / fps
			pix, err := rc.RenderFrame(t)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			if d := rc.LastDiag(); d != nil && d.Faults() > 0 {
				arcana.Logger().Warn("frame rendered with faulted pixels",
					"frame", i, "faults", d.Faults(), "first", d.First())
			}
			select {
			case frames <- Frame{Index: i, Time: t, Pix: pix}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for f := range frames {
			if err := s.WriteFrame(f.Index, f.Time, f.Pix); err != nil {
				return fmt.Errorf("writing frame %d: %w", f.Index, err)
			}
			if progress && total > 0 {
				fmt.Fprintf(os.Stderr, "\rframe %d/%d", f.Index+1, total)
			}
		}
		if progress && total > 0 {
			fmt.Fprintln(os.Stderr)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return s.Close()
}
