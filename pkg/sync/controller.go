// ABOUTME: Playback sync controller
// ABOUTME: Per-tick state machine choosing frame durations from audio time
package sync

import (
	"errors"
	"fmt"
	"log"
	"math"
)

// DefaultCheckInterval is how often, in video seconds, sync is checked
const DefaultCheckInterval = 0.333

// AudioClock reports the audio time at which a frame should be shown
type AudioClock interface {
	AudioTime(frame int) (seconds float64, ok bool)
}

// Regime is the controller's current rate choice
type Regime int

const (
	RegimeNormal Regime = iota
	RegimeSlow
	RegimeFast
)

func (r Regime) String() string {
	switch r {
	case RegimeNormal:
		return "normal"
	case RegimeSlow:
		return "slow"
	case RegimeFast:
		return "fast"
	default:
		return "unknown"
	}
}

// Config configures a Controller
type Config struct {
	NormalRate    float64 // Frames per second
	FrameCount    int
	AudioDuration float64 // Seconds; the last frame is held until it elapses
	CheckInterval float64 // Defaults to DefaultCheckInterval
}

// TickResult is the frame to present and how long to hold it
type TickResult struct {
	Frame        int
	Duration     float64
	Rate         float64
	Regime       Regime
	Repositioned bool
	Done         bool
}

var ErrNoFrames = errors.New("sync: no frames to play")

// Controller follows the audio clock by switching between three rates.
// Not safe for concurrent use.
type Controller struct {
	cfg   Config
	clock AudioClock

	minRate float64
	maxRate float64

	current   float64
	rate      float64
	regime    Regime
	videoTime float64
	lastCheck float64
	checks    int
	done      bool
}

// NewController creates a controller. A nil clock disables sync checks.
func NewController(cfg Config, clock AudioClock) (*Controller, error) {
	if cfg.FrameCount <= 0 {
		return nil, ErrNoFrames
	}
	if cfg.NormalRate <= 0 {
		return nil, fmt.Errorf("sync: invalid frame rate %v", cfg.NormalRate)
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	return &Controller{
		cfg:     cfg,
		clock:   clock,
		minRate: math.Max(1, cfg.NormalRate-1),
		maxRate: cfg.NormalRate + 1,
		rate:    cfg.NormalRate,
		regime:  RegimeNormal,
	}, nil
}

// Rate returns the current frame rate
func (c *Controller) Rate() float64 {
	return c.rate
}

// Regime returns the current regime
func (c *Controller) Regime() Regime {
	return c.regime
}

// VideoTime returns elapsed video seconds
func (c *Controller) VideoTime() float64 {
	return c.videoTime
}

// Done reports whether the last frame has been issued
func (c *Controller) Done() bool {
	return c.done
}

// Tick advances by one presented frame
func (c *Controller) Tick() TickResult {
	last := c.cfg.FrameCount - 1
	if c.done {
		return TickResult{Frame: last, Rate: c.rate, Regime: c.regime, Done: true}
	}

	frame := int(c.current)
	repositioned := false

	if c.clock != nil && c.videoTime >= c.lastCheck+c.cfg.CheckInterval {
		if audioTime, ok := c.clock.AudioTime(frame); ok {
			frame, repositioned = c.check(frame, audioTime)
		}
	}

	dur := 1 / c.rate

	if frame >= last {
		frame = last
		dur = math.Max(dur, c.cfg.AudioDuration-c.videoTime)
		c.done = true
		return TickResult{Frame: frame, Duration: dur, Rate: c.rate, Regime: c.regime, Repositioned: repositioned, Done: true}
	}

	c.videoTime += dur
	c.current += 1
	return TickResult{Frame: frame, Duration: dur, Rate: c.rate, Regime: c.regime, Repositioned: repositioned}
}

func (c *Controller) check(frame int, audioTime float64) (int, bool) {
	c.lastCheck = c.videoTime
	audioFrame := int(math.RoundToEven(audioTime * c.cfg.NormalRate))

	var next Regime
	switch {
	case audioFrame < frame-1 && c.rate != c.minRate:
		next = RegimeSlow
	case audioFrame > frame+1 && c.rate != c.maxRate:
		next = RegimeFast
	case abs(audioFrame-frame) <= 1 && c.rate != c.cfg.NormalRate:
		next = RegimeNormal
	default:
		return frame, false
	}

	if audioFrame >= frame {
		frame = min(audioFrame, c.cfg.FrameCount-1)
	}
	c.current = float64(frame)

	if c.checks < 5 {
		log.Printf("Sync: frame %d audio frame %d, %v -> %v", frame, audioFrame, c.regime, next)
	}
	c.checks++

	c.regime = next
	c.rate = c.rateFor(next)
	return frame, true
}

func (c *Controller) rateFor(r Regime) float64 {
	switch r {
	case RegimeSlow:
		return c.minRate
	case RegimeFast:
		return c.maxRate
	default:
		return c.cfg.NormalRate
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
