// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends and a discarding backend
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/scummtools/robot-go/pkg/audio"
)

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int16) error

	// Played returns how much audio has reached the speaker
	Played() time.Duration

	// Close releases output resources
	Close() error
}

// VolumeControl is implemented by outputs with software volume
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	GetVolume() int
	IsMuted() bool
}

// Null discards audio while tracking the play position as if it had
// been played instantly
type Null struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	written    int64
	ready      bool
}

// NewNull creates a discarding output
func NewNull() *Null {
	return &Null{}
}

// Open records the stream format
func (n *Null) Open(sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid output format: %d Hz, %d channels", sampleRate, channels)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sampleRate = sampleRate
	n.channels = channels
	n.ready = true
	return nil
}

// Write counts the samples
func (n *Null) Write(samples []int16) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.ready {
		return fmt.Errorf("output not initialized")
	}
	n.written += int64(len(samples))
	return nil
}

// Played returns the duration of everything written
func (n *Null) Played() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.ready {
		return 0
	}
	return audio.SamplesToDuration(int(n.written)/n.channels, n.sampleRate)
}

// Close marks the output closed
func (n *Null) Close() error {
	n.mu.Lock()
	n.ready = false
	n.mu.Unlock()
	return nil
}
