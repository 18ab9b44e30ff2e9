package audio

// Source provides mono audio samples to the music input channel. Offline
// sources (WAV files, silence) are positional and deterministic: Window
// with the same arguments always returns the same samples. Live sources
// (microphone) ignore the position and return the most recent window.
type Source interface {
	// Window returns n samples ending at absolute sample position pos.
	// Positions outside the source are zero-filled.
	Window(pos int64, n int) []float64

	// SampleRate returns the stream's sample rate in Hz.
	SampleRate() int

	// Close releases the source. Window calls after Close return silence.
	Close() error
}

// NullSource is the silent fallback used when no audio input is
// configured, matching the silent-mic behavior shaders see on the site
// without permission to record.
type NullSource struct {
	rate int
}

func NewNullSource(sampleRate int) *NullSource {
	return &NullSource{rate: sampleRate}
}

func (s *NullSource) Window(pos int64, n int) []float64 {
	return make([]float64, n)
}

func (s *NullSource) SampleRate() int { return s.rate }

func (s *NullSource) Close() error { return nil }
