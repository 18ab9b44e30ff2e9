package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	opts := Defaults()
	assert.Equal(t, 800, opts.Width)
	assert.Equal(t, 450, opts.Height)
	assert.Equal(t, 30, opts.FPS)
	assert.Equal(t, 10.0, opts.Duration)
	assert.Equal(t, "png", opts.Format)
	assert.True(t, opts.UseCache)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
shaderid: XsBXWt
width: 640
height: 480
fps: 24
format: raw
audiofile: beat.wav
`), 0644))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "XsBXWt", opts.ShaderID)
	assert.Equal(t, 640, opts.Width)
	assert.Equal(t, 480, opts.Height)
	assert.Equal(t, 24, opts.FPS)
	assert.Equal(t, "raw", opts.Format)
	assert.Equal(t, "beat.wav", opts.AudioInputFile)
	// untouched keys keep their defaults
	assert.Equal(t, 10.0, opts.Duration)
	assert.True(t, opts.UseCache)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: [not an int"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	ok := Defaults()
	ok.ShaderID = "XsBXWt"
	assert.NoError(t, ok.Validate())

	cases := map[string]func(*Options){
		"zero width":       func(o *Options) { o.Width = 0 },
		"negative height":  func(o *Options) { o.Height = -1 },
		"zero fps":         func(o *Options) { o.FPS = 0 },
		"negative length":  func(o *Options) { o.Duration = -1 },
		"no shader":        func(o *Options) { o.ShaderID = "" },
		"bad format":       func(o *Options) { o.Format = "gif" },
		"audio conflict":   func(o *Options) { o.AudioInputFile = "a.wav"; o.UseMicrophone = true },
		"negative workers": func(o *Options) { o.Workers = -2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := Defaults()
			o.ShaderID = "XsBXWt"
			mutate(o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestFrameCount(t *testing.T) {
	o := Defaults()
	o.FPS = 24
	o.Duration = 2.5
	assert.Equal(t, 60, o.FrameCount())

	o.Duration = 0
	assert.Equal(t, 0, o.FrameCount())
}
