package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const micHistorySize = 1 << 15

// Microphone captures the default input device through portaudio. It is a
// live Source: Window ignores the requested position and returns the most
// recent samples, so preview renders react to what the microphone hears
// right now.
//
// macos:	brew install portaudio
// debian:	sudo apt-get install portaudio19-dev
type Microphone struct {
	rate    int
	stream  *portaudio.Stream
	mu      sync.Mutex
	history [micHistorySize]float64
	pos     int
	open    bool
}

func NewMicrophone(sampleRate int) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize portaudio: %w", err)
	}
	m := &Microphone{rate: sampleRate}

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	params := portaudio.HighLatencyParameters(host.DefaultInputDevice, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(sampleRate)

	stream, err := portaudio.OpenStream(params, m.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("audio: open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("audio: start input stream: %w", err)
	}
	m.stream = stream
	m.open = true
	return m, nil
}

// callback runs on portaudio's audio thread; it only appends to the ring
// buffer under the lock.
func (m *Microphone) callback(in []float32) {
	m.mu.Lock()
	for _, s := range in {
		m.history[m.pos] = float64(s)
		m.pos = (m.pos + 1) % micHistorySize
	}
	m.mu.Unlock()
}

func (m *Microphone) Window(pos int64, n int) []float64 {
	out := make([]float64, n)
	m.mu.Lock()
	for i := 0; i < n; i++ {
		out[i] = m.history[(m.pos-n+i+micHistorySize)%micHistorySize]
	}
	m.mu.Unlock()
	return out
}

func (m *Microphone) SampleRate() int { return m.rate }

func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil
	}
	m.open = false
	if err := m.stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	return portaudio.Terminate()
}
