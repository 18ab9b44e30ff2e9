package renderer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/richinsley/shadertoyarcana/api"
	options "github.com/richinsley/shadertoyarcana/options"
)

// stubProvider serves a fixed shader without touching the network.
type stubProvider struct {
	code   string
	common string
}

func (p *stubProvider) Shader(string) (*api.ShaderArgs, error) {
	return &api.ShaderArgs{
		ShaderCode: p.code,
		CommonCode: p.common,
		Inputs:     make([]*api.ShadertoyChannel, 4),
		Title:      "stub",
	}, nil
}

const redShader = `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(1.0, 0.0, 0.0, 1.0);
}
`

func testOptions(w, h int) *options.Options {
	opts := options.Defaults()
	opts.Width = w
	opts.Height = h
	opts.ShaderID = "stub"
	return opts
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	handle, err := m.Create(&stubProvider{code: redShader}, testOptions(4, 4))
	require.NoError(t, err)
	require.NotZero(t, handle)

	pix, err := m.Render(handle, 0.0)
	require.NoError(t, err)
	require.Len(t, pix, 4*4*4)
	assert.Equal(t, byte(255), pix[0])
	assert.Equal(t, byte(0), pix[1])
	assert.Equal(t, byte(0), pix[2])
	assert.Equal(t, byte(255), pix[3])

	require.NoError(t, m.Close(handle))
}

func TestManagerInvalidHandle(t *testing.T) {
	m := NewManager()
	_, err := m.Render(42, 0.0)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.ErrorIs(t, m.Close(42), ErrInvalidHandle)

	_, err = m.Render(0, 0.0)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestManagerDoubleClose(t *testing.T) {
	m := NewManager()
	handle, err := m.Create(&stubProvider{code: redShader}, testOptions(2, 2))
	require.NoError(t, err)

	require.NoError(t, m.Close(handle))
	assert.ErrorIs(t, m.Close(handle), ErrInvalidHandle)

	_, err = m.Render(handle, 0.0)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestManagerCompileErrorSurfacesOnCreate(t *testing.T) {
	m := NewManager()
	_, err := m.Create(&stubProvider{code: `not a shader`}, testOptions(2, 2))
	require.Error(t, err)
}

func TestManagerRejectsInvalidSize(t *testing.T) {
	m := NewManager()
	for _, dims := range [][2]int{{0, 4}, {4, 0}, {-1, 4}} {
		_, err := m.Create(&stubProvider{code: redShader}, testOptions(dims[0], dims[1]))
		require.Error(t, err, "size %dx%d", dims[0], dims[1])
	}
	// No handle was issued for any of them.
	assert.ErrorIs(t, m.Close(1), ErrInvalidHandle)
}

// failingProvider simulates a rejected credential at fetch time.
type failingProvider struct{ err error }

func (p *failingProvider) Shader(string) (*api.ShaderArgs, error) { return nil, p.err }

func TestManagerProvisionFailureLeavesNoContext(t *testing.T) {
	m := NewManager()
	_, err := m.Create(&failingProvider{err: api.ErrUnauthorized}, testOptions(2, 2))
	require.ErrorIs(t, err, api.ErrUnauthorized)

	// No handle was issued; the first real one would have been 1.
	assert.ErrorIs(t, m.Close(1), ErrInvalidHandle)
}

func TestManagerFrameCounter(t *testing.T) {
	m := NewManager()
	handle, err := m.Create(&stubProvider{code: `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(float(iFrame) / 255.0, 0.0, 0.0, 1.0);
}
`}, testOptions(1, 1))
	require.NoError(t, err)
	defer m.Close(handle)

	rc, err := m.Get(handle)
	require.NoError(t, err)

	for want := 0; want < 3; want++ {
		pix, err := m.Render(handle, float64(want)/30)
		require.NoError(t, err)
		assert.Equal(t, byte(want), pix[0])
	}
	assert.Equal(t, int32(3), rc.Frame())
}

func TestManagerCommonPass(t *testing.T) {
	m := NewManager()
	handle, err := m.Create(&stubProvider{
		common: `float half_() { return 0.5; }`,
		code: `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(half_(), 0.0, 0.0, 1.0);
}
`,
	}, testOptions(1, 1))
	require.NoError(t, err)
	defer m.Close(handle)

	pix, err := m.Render(handle, 0.0)
	require.NoError(t, err)
	assert.Equal(t, byte(128), pix[0])
}

func TestManagerConcurrentHandles(t *testing.T) {
	m := NewManager()
	const n = 8

	handles := make([]uint64, n)
	for i := range handles {
		h, err := m.Create(&stubProvider{code: redShader}, testOptions(8, 8))
		require.NoError(t, err)
		handles[i] = h
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, h := range handles {
		wg.Add(1)
		go func(i int, h uint64) {
			defer wg.Done()
			for f := 0; f < 10; f++ {
				if _, err := m.Render(h, float64(f)/30); err != nil {
					errs[i] = err
					return
				}
			}
		}(i, h)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "handle %d", handles[i])
	}
	m.CloseAll()
	for _, h := range handles {
		assert.ErrorIs(t, m.Close(h), ErrInvalidHandle)
	}
}

func TestDateUniform(t *testing.T) {
	created := time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)
	d := dateUniform(created, 90.5)
	assert.Equal(t, 2025.0, d[0])
	assert.Equal(t, 2.0, d[1]) // March, zero-based
	assert.Equal(t, 15.0, d[2])
	assert.InDelta(t, 10*3600+30*60+90.5, d[3], 1e-9)
}

func TestRenderContextTimeDelta(t *testing.T) {
	m := NewManager()
	handle, err := m.Create(&stubProvider{code: `
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = vec4(iTimeDelta, 0.0, 0.0, 1.0);
}
`}, testOptions(1, 1))
	require.NoError(t, err)
	defer m.Close(handle)

	// First frame uses the nominal frame interval.
	pix, err := m.Render(handle, 0.0)
	require.NoError(t, err)
	assert.Equal(t, byte(9), pix[0]) // 1/30 quantized

	// Going backwards in time clamps the delta at zero.
	_, err = m.Render(handle, 5.0)
	require.NoError(t, err)
	pix, err = m.Render(handle, 1.0)
	require.NoError(t, err)
	assert.Equal(t, byte(0), pix[0])
}

func TestRunWritesAllFrames(t *testing.T) {
	m := NewManager()
	opts := testOptions(4, 4)
	opts.FPS = 10
	opts.Duration = 0.5

	handle, err := m.Create(&stubProvider{code: redShader}, opts)
	require.NoError(t, err)
	defer m.Close(handle)
	rc, err := m.Get(handle)
	require.NoError(t, err)

	collector := &collectSink{}
	require.NoError(t, Run(context.Background(), rc, opts, collector))
	assert.Equal(t, 5, len(collector.frames))
	assert.True(t, collector.closed)
	for i, f := range collector.frames {
		assert.Equal(t, i, f.Index)
		assert.InDelta(t, float64(i)/10, f.Time, 1e-9)
	}
}

type collectSink struct {
	frames []Frame
	closed bool
}

func (s *collectSink) WriteFrame(index int, t float64, pix []byte) error {
	kept := make([]byte, len(pix))
	copy(kept, pix)
	s.frames = append(s.frames, Frame{Index: index, Time: t, Pix: kept})
	return nil
}

func (s *collectSink) Close() error {
	s.closed = true
	return nil
}
