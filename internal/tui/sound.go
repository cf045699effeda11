package tui

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate    = beep.SampleRate(44100)
	toneDuration  = 80 * time.Millisecond
	correctFreq   = 880
	wrongFreq     = 220
	speakerBuffer = time.Second / 10
)

// Sound plays feedback tones.
type Sound interface {
	Correct()
	Wrong()
	Close()
}

// Silent is a Sound that does nothing.
type Silent struct{}

func (Silent) Correct() {}
func (Silent) Wrong()   {}
func (Silent) Close()   {}

// Speaker plays sine tones through the system audio device.
type Speaker struct {
	mu     sync.Mutex
	closed bool
}

// NewSpeaker initializes the audio device. Callers fall back to Silent on error.
func NewSpeaker() (*Speaker, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(speakerBuffer)); err != nil {
		return nil, err
	}
	return &Speaker{}, nil
}

// Correct plays a short high tone.
func (s *Speaker) Correct() { s.tone(correctFreq) }

// Wrong plays a short low tone.
func (s *Speaker) Wrong() { s.tone(wrongFreq) }

func (s *Speaker) tone(freq int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	sine, err := generators.SineTone(sampleRate, float64(freq))
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(toneDuration), sine))
}

// Close releases the audio device.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		speaker.Close()
	}
}
