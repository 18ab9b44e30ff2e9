// Package options holds run configuration shared by the CLI, the sequence
// driver, and the C bridge. Options load from YAML files and fill in
// sensible defaults for anything left unset.
package options

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// Options configures a render run.
type Options struct {
	APIKey   string `yaml:"apikey"`
	ShaderID string `yaml:"shaderid"`

	// ShaderFile renders a local GLSL file instead of fetching ShaderID.
	ShaderFile string `yaml:"shaderfile"`
	CommonFile string `yaml:"commonfile"`

	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	FPS      int     `yaml:"fps"`
	Duration float64 `yaml:"duration"`

	// Output is the destination: a directory for image sequences, a file
	// for raw streams, "-" for stdout.
	Output string `yaml:"output"`
	// Format selects the sink: png, bmp, or raw.
	Format string `yaml:"format"`

	AudioInputFile string `yaml:"audiofile"`
	UseMicrophone  bool   `yaml:"microphone"`

	// Realtime paces frame production at FPS instead of rendering as
	// fast as possible, for piping into live consumers.
	Realtime bool `yaml:"realtime"`

	UseCache bool `yaml:"cache"`
	Workers  int  `yaml:"workers"`
	Verbose  bool `yaml:"verbose"`
}

// Defaults returns the options used when nothing is configured: the site's
// default canvas size at 30 fps for ten seconds, PNG frames, cache on.
func Defaults() *Options {
	return &Options{
		Width:    800,
		Height:   450,
		FPS:      30,
		Duration: 10,
		Format:   "png",
		UseCache: true,
	}
}

// Load reads a YAML options file over the defaults.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options file: %w", err)
	}
	opts := Defaults()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parsing options file %s: %w", path, err)
	}
	return opts, nil
}

// Validate rejects option combinations a run cannot start from.
func (o *Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", o.Width, o.Height)
	}
	if o.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", o.FPS)
	}
	if o.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %g", o.Duration)
	}
	if o.ShaderID == "" && o.ShaderFile == "" {
		return fmt.Errorf("either a shader id or a shader file is required")
	}
	switch o.Format {
	case "png", "bmp", "raw":
	default:
		return fmt.Errorf("unknown output format %q", o.Format)
	}
	if o.AudioInputFile != "" && o.UseMicrophone {
		return fmt.Errorf("audio file and microphone input are mutually exclusive")
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", o.Workers)
	}
	return nil
}

// FrameCount returns the number of frames a finite run produces, or 0 for
// an unbounded run.
func (o *Options) FrameCount() int {
	if o.Duration <= 0 {
		return 0
	}
	return int(o.Duration * float64(o.FPS))
}
