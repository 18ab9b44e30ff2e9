package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v2"

	arcana "github.com/richinsley/shadertoyarcana"
	api "github.com/richinsley/shadertoyarcana/api"
	eval "github.com/richinsley/shadertoyarcana/eval"
	options "github.com/richinsley/shadertoyarcana/options"
	preview "github.com/richinsley/shadertoyarcana/preview"
	renderer "github.com/richinsley/shadertoyarcana/renderer"
	shader "github.com/richinsley/shadertoyarcana/shader"
	sink "github.com/richinsley/shadertoyarcana/sink"
)

func main() {
	app := &cli.App{
		Name:  "shadertoyarcana",
		Usage: "render shadertoy shaders on the cpu",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML options file"},
			&cli.StringFlag{Name: "apikey", Usage: "shadertoy API key (SHADERTOY_KEY if unset)"},
			&cli.StringFlag{Name: "shader", Aliases: []string{"s"}, Usage: "shadertoy shader ID or URL"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "local GLSL shader file"},
			&cli.StringFlag{Name: "common", Usage: "local GLSL common file"},
			&cli.IntFlag{Name: "width", Usage: "frame width"},
			&cli.IntFlag{Name: "height", Usage: "frame height"},
			&cli.IntFlag{Name: "fps", Usage: "frames per second"},
			&cli.Float64Flag{Name: "duration", Aliases: []string{"d"}, Usage: "seconds to render"},
			&cli.StringFlag{Name: "audio", Usage: "WAV file driving the audio channel"},
			&cli.BoolFlag{Name: "mic", Usage: "drive the audio channel from the microphone"},
			&cli.BoolFlag{Name: "no-cache", Usage: "bypass the shader and media cache"},
			&cli.IntFlag{Name: "workers", Usage: "render worker goroutines (default: all cores)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log to stderr"},
		},
		Commands: []*cli.Command{
			{
				Name:  "render",
				Usage: "render a frame sequence to disk or a raw stream",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory, file, or - for stdout"},
					&cli.StringFlag{Name: "format", Usage: "png, bmp, or raw"},
					&cli.BoolFlag{Name: "realtime", Usage: "pace frames at fps"},
				},
				Action: renderCmd,
			},
			{
				Name:   "preview",
				Usage:  "play the shader in a window",
				Action: previewCmd,
			},
			{
				Name:  "contact",
				Usage: "render a labeled contact sheet of the sequence",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "contact.png", Usage: "sheet file"},
					&cli.IntFlag{Name: "every", Value: 30, Usage: "keep every Nth frame"},
					&cli.IntFlag{Name: "cols", Usage: "grid columns (default: near-square)"},
				},
				Action: contactCmd,
			},
			{
				Name:   "check",
				Usage:  "compile the shader and report errors without rendering",
				Action: checkCmd,
			},
			{
				Name:   "info",
				Usage:  "show shader metadata and channel bindings",
				Action: infoCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// buildOptions merges defaults, the optional config file, and flags, in
// that order.
func buildOptions(c *cli.Context) (*options.Options, error) {
	opts := options.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := options.Load(path)
		if err != nil {
			return nil, err
		}
		opts = loaded
	}

	if c.IsSet("apikey") {
		opts.APIKey = c.String("apikey")
	}
	if c.IsSet("shader") {
		opts.ShaderID = c.String("shader")
	}
	if c.IsSet("file") {
		opts.ShaderFile = c.String("file")
	}
	if c.IsSet("common") {
		opts.CommonFile = c.String("common")
	}
	if c.IsSet("width") {
		opts.Width = c.Int("width")
	}
	if c.IsSet("height") {
		opts.Height = c.Int("height")
	}
	if c.IsSet("fps") {
		opts.FPS = c.Int("fps")
	}
	if c.IsSet("duration") {
		opts.Duration = c.Float64("duration")
	}
	if c.IsSet("audio") {
		opts.AudioInputFile = c.String("audio")
	}
	if c.IsSet("mic") {
		opts.UseMicrophone = c.Bool("mic")
	}
	if c.IsSet("no-cache") {
		opts.UseCache = !c.Bool("no-cache")
	}
	if c.IsSet("workers") {
		opts.Workers = c.Int("workers")
	}
	if c.IsSet("output") {
		opts.Output = c.String("output")
	}
	if c.IsSet("format") {
		opts.Format = c.String("format")
	}
	if c.IsSet("realtime") {
		opts.Realtime = c.Bool("realtime")
	}
	if c.Bool("verbose") {
		opts.Verbose = true
	}

	// ShaderID doubles as the shader file for validation purposes.
	if opts.ShaderFile != "" && opts.ShaderID == "" {
		opts.ShaderID = opts.ShaderFile
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if opts.Verbose {
		arcana.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	if opts.Workers > 0 {
		eval.SetWorkers(opts.Workers)
	}
	return opts, nil
}

func provider(opts *options.Options) (api.Provider, error) {
	if opts.ShaderFile != "" {
		return &api.FileProvider{Path: opts.ShaderFile, CommonPath: opts.CommonFile}, nil
	}
	return api.NewClient(opts.APIKey, opts.UseCache)
}

// makeContext fetches, compiles, and registers the shader behind a handle.
// The caller must call the returned cleanup.
func makeContext(opts *options.Options) (*renderer.RenderContext, func(), error) {
	p, err := provider(opts)
	if err != nil {
		return nil, nil, err
	}
	m := renderer.NewManager()
	handle, err := m.Create(p, opts)
	if err != nil {
		return nil, nil, err
	}
	rc, err := m.Get(handle)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { m.Close(handle) }, nil
}

func renderCmd(c *cli.Context) error {
	opts, err := buildOptions(c)
	if err != nil {
		return err
	}
	rc, cleanup, err := makeContext(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	s, err := sink.For(opts.Format, opts.Output, opts.Width, opts.Height)
	if err != nil {
		return err
	}
	return renderer.Run(context.Background(), rc, opts, s)
}

func previewCmd(c *cli.Context) error {
	opts, err := buildOptions(c)
	if err != nil {
		return err
	}
	rc, cleanup, err := makeContext(opts)
	if err != nil {
		return err
	}
	defer cleanup()
	return preview.Run(rc)
}

func contactCmd(c *cli.Context) error {
	opts, err := buildOptions(c)
	if err != nil {
		return err
	}
	rc, cleanup, err := makeContext(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	s := sink.NewContactSheet(c.String("output"), opts.Width, opts.Height,
		c.Int("every"), c.Int("cols"))
	if err := renderer.Run(context.Background(), rc, opts, s); err != nil {
		return err
	}
	fmt.Println("wrote", c.String("output"))
	return nil
}

func checkCmd(c *cli.Context) error {
	opts, err := buildOptions(c)
	if err != nil {
		return err
	}
	p, err := provider(opts)
	if err != nil {
		return err
	}
	args, err := p.Shader(opts.ShaderID)
	if err != nil {
		return err
	}
	if _, err := shader.Compile(shader.Assemble(args.CommonCode, args.ShaderCode)); err != nil {
		return err
	}
	fmt.Printf("%s: ok\n", args.Title)
	return nil
}

func infoCmd(c *cli.Context) error {
	opts, err := buildOptions(c)
	if err != nil {
		return err
	}
	p, err := provider(opts)
	if err != nil {
		return err
	}
	args, err := p.Shader(opts.ShaderID)
	if err != nil {
		return err
	}

	fmt.Println(args.Title)
	fmt.Printf("  image pass: %d bytes\n", len(args.ShaderCode))
	if args.CommonCode != "" {
		fmt.Printf("  common pass: %d bytes\n", len(args.CommonCode))
	}
	for _, ch := range args.Inputs {
		if ch == nil {
			continue
		}
		desc := ch.CType
		if ch.Data != nil {
			b := ch.Data.Bounds()
			desc = fmt.Sprintf("%s %dx%d (%s/%s)", ch.CType, b.Dx(), b.Dy(),
				ch.Sampler.Filter, ch.Sampler.Wrap)
		}
		fmt.Printf("  iChannel%d: %s\n", ch.Channel, desc)
	}
	return nil
}
