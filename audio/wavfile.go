package audio

import (
	"fmt"
	"os"

	wav "github.com/mjibson/go-dsp/wav"
)

// WavFile is a fully decoded WAV file. Decoding everything up front keeps
// Window positional and pure, which is what deterministic offline renders
// need from a music channel.
type WavFile struct {
	samples []float64
	rate    int
}

// OpenWavFile reads and decodes path, mixing multi-channel audio down to
// mono.
func OpenWavFile(path string) (*WavFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	w, err := wav.New(f)
	if err != nil {
		return nil, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	raw, err := w.ReadFloats(w.Samples)
	if err != nil {
		return nil, fmt.Errorf("audio: read %s: %w", path, err)
	}

	ch := int(w.NumChannels)
	if ch < 1 {
		ch = 1
	}
	mono := make([]float64, len(raw)/ch)
	for i := range mono {
		var sum float64
		for c := 0; c < ch; c++ {
			// ReadFloats normalizes PCM to [0,1]; shift back to signed
			// [-1,1] so zero means silence.
			sum += float64(raw[i*ch+c])*2 - 1
		}
		mono[i] = sum / float64(ch)
	}

	return &WavFile{samples: mono, rate: int(w.SampleRate)}, nil
}

func (s *WavFile) Window(pos int64, n int) []float64 {
	out := make([]float64, n)
	start := pos - int64(n)
	for i := 0; i < n; i++ {
		p := start + int64(i)
		if p >= 0 && p < int64(len(s.samples)) {
			out[i] = s.samples[p]
		}
	}
	return out
}

func (s *WavFile) SampleRate() int { return s.rate }

func (s *WavFile) Close() error {
	s.samples = nil
	return nil
}

// Duration returns the length of the file in seconds.
func (s *WavFile) Duration() float64 {
	return float64(len(s.samples)) / float64(s.rate)
}
