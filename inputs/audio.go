package inputs

import (
	"math"
	"sync"

	fft "github.com/mjibson/go-dsp/fft"

	audio "github.com/richinsley/shadertoyarcana/audio"
)

const (
	textureWidth  = 512
	textureHeight = 2
	// Shadertoy uses an fftSize of 2048, which gives 1024 frequency bins.
	fftInputSize = 2048

	// analyser dB range, matching the WebAudio defaults the site uses
	minDecibels = -100.0
	maxDecibels = -30.0
)

// AudioChannel renders an audio Source as the standard Shadertoy music
// texture: 512x2, frequency spectrum on row 0, waveform on row 1. The
// texture is rebuilt once per frame in Update from the window of samples
// ending at the frame's time, so offline sources yield deterministic
// frames.
type AudioChannel struct {
	ctype  string
	source audio.Source

	mu          sync.RWMutex
	textureData [textureWidth * textureHeight]float64

	// temporal smoothing of the spectrum, like the site's analyser node
	lastFFT         []float64
	smoothingFactor float64
}

func NewAudioChannel(ctype string, source audio.Source) *AudioChannel {
	c := &AudioChannel{
		ctype:           ctype,
		source:          source,
		lastFFT:         make([]float64, textureWidth),
		smoothingFactor: 0.8,
	}
	// Start the smoother at the dB floor so silence reads as silence
	// instead of decaying from 0 dB.
	for i := range c.lastFFT {
		c.lastFFT[i] = minDecibels
	}
	return c
}

// Update recomputes both texture rows from the samples leading up to the
// current frame time.
func (c *AudioChannel) Update(uniforms *Uniforms) {
	pos := int64(uniforms.Time * float64(c.source.SampleRate()))
	samples := c.source.Window(pos, fftInputSize)

	window := blackmanWindow(fftInputSize)
	windowed := make([]float64, fftInputSize)
	for i, s := range samples {
		windowed[i] = s * window[i]
	}

	fftResult := fft.FFTReal(windowed)

	c.mu.Lock()
	// Row 0: the first 512 of 1024 frequency bins, in decibels, smoothed
	// and scaled to [0,1].
	for i := 0; i < textureWidth; i++ {
		re := real(fftResult[i])
		im := imag(fftResult[i])
		magnitude := math.Sqrt(re*re+im*im) * (2.0 / float64(fftInputSize))
		db := 20 * math.Log10(magnitude+1e-9)

		c.lastFFT[i] = (c.smoothingFactor * c.lastFFT[i]) + ((1.0 - c.smoothingFactor) * db)
		smoothedDb := c.lastFFT[i]

		switch {
		case smoothedDb < minDecibels:
			c.textureData[i] = 0
		case smoothedDb > maxDecibels:
			c.textureData[i] = 1
		default:
			c.textureData[i] = (smoothedDb - minDecibels) / (maxDecibels - minDecibels)
		}
	}

	// Row 1: the most recent 512 samples, scaled from [-1,1] to [0,1].
	waveSegment := samples[len(samples)-textureWidth:]
	for i := 0; i < textureWidth; i++ {
		c.textureData[textureWidth+i] = (waveSegment[i] + 1.0) * 0.5
	}
	c.mu.Unlock()
}

// Sample reads the music texture: v selects the row, u interpolates along
// it.
func (c *AudioChannel) Sample(u, v float64) [4]float64 {
	row := 0
	if v >= 0.5 {
		row = 1
	}

	fx := u*textureWidth - 0.5
	x0 := int(math.Floor(fx))
	t := fx - float64(x0)

	c.mu.RLock()
	a := c.textureData[row*textureWidth+clampIndex(x0)]
	b := c.textureData[row*textureWidth+clampIndex(x0+1)]
	c.mu.RUnlock()

	val := a*(1-t) + b*t
	return [4]float64{val, val, val, 1}
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i >= textureWidth {
		return textureWidth - 1
	}
	return i
}

func (c *AudioChannel) GetCType() string { return c.ctype }

func (c *AudioChannel) ChannelRes() [3]float32 {
	return [3]float32{textureWidth, textureHeight, 0}
}

func (c *AudioChannel) Destroy() {
	if c.source != nil {
		c.source.Close()
	}
}

// SampleRate returns the sample rate of the backing source.
func (c *AudioChannel) SampleRate() int {
	return c.source.SampleRate()
}

// blackmanWindow generates a Blackman window, as used by Shadertoy.
func blackmanWindow(size int) []float64 {
	window := make([]float64, size)
	a0 := 0.42
	a1 := 0.5
	a2 := 0.08
	invSize := 1.0 / float64(size-1)
	for i := range window {
		t := float64(i) * invSize
		window[i] = a0 - (a1 * math.Cos(2*math.Pi*t)) + (a2 * math.Cos(4*math.Pi*t))
	}
	return window
}
