package inputs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	audio "github.com/richinsley/shadertoyarcana/audio"
)

// sineSource emits a fixed-frequency tone, positionally, so windows are
// reproducible.
type sineSource struct {
	freq float64
	rate int
}

func (s *sineSource) Window(pos int64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		at := float64(pos) - float64(n-i)
		out[i] = math.Sin(2 * math.Pi * s.freq * at / float64(s.rate))
	}
	return out
}

func (s *sineSource) SampleRate() int { return s.rate }
func (s *sineSource) Close() error    { return nil }

func TestAudioChannelSilence(t *testing.T) {
	ch := NewAudioChannel("music", audio.NewNullSource(44100))
	ch.Update(&Uniforms{Time: 1.0})

	// Spectrum row is at the floor, waveform row sits at the midpoint.
	spec := ch.Sample(0.2, 0.0)
	assert.InDelta(t, 0.0, spec[0], 1e-9)
	wave := ch.Sample(0.2, 1.0)
	assert.InDelta(t, 0.5, wave[0], 1e-9)
}

func TestAudioChannelToneHasPeak(t *testing.T) {
	const rate = 44100
	src := &sineSource{freq: 1000, rate: rate}
	ch := NewAudioChannel("music", src)
	// A few updates so the smoother converges toward the live spectrum.
	for i := 0; i < 20; i++ {
		ch.Update(&Uniforms{Time: float64(i) / 30})
	}

	// Bin width is rate/fftInputSize; find the texture u for 1 kHz.
	bin := 1000.0 / (float64(rate) / fftInputSize)
	peakU := (bin + 0.5) / textureWidth
	peak := ch.Sample(peakU, 0.0)[0]
	quiet := ch.Sample(0.9, 0.0)[0]
	assert.Greater(t, peak, quiet)
	assert.Greater(t, peak, 0.5)
}

func TestAudioChannelWaveformRange(t *testing.T) {
	src := &sineSource{freq: 440, rate: 44100}
	ch := NewAudioChannel("music", src)
	ch.Update(&Uniforms{Time: 0.5})

	for _, u := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		v := ch.Sample(u, 1.0)[0]
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestAudioChannelRes(t *testing.T) {
	ch := NewAudioChannel("music", audio.NewNullSource(44100))
	assert.Equal(t, [3]float32{512, 2, 0}, ch.ChannelRes())
}
