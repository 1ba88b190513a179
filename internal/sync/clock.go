// ABOUTME: Live audio clock with drift compensation
// ABOUTME: Smooths the output device's played position into a continuous audio time
package sync

import (
	"log"
	"sync"
	"time"
)

// PositionSource reports how much audio has been played
type PositionSource interface {
	Played() time.Duration
}

// Quality represents clock quality
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityDegraded:
		return "degraded"
	default:
		return "lost"
	}
}

const (
	// stallTimeout without position progress marks the clock lost
	stallTimeout = 5 * time.Second

	// outlierThreshold residuals are treated as a device jump and reset the estimate
	outlierThreshold = 0.5

	// degradedThreshold residuals mark the estimate degraded
	degradedThreshold = 0.05
)

// AudioClock tracks the played audio position against the wall clock.
// The device reports position in buffer-sized steps; the clock predicts
// between steps using the measured drift and corrects with a fixed gain.
type AudioClock struct {
	mu            sync.Mutex
	src           PositionSource
	now           func() time.Time
	position      float64   // Smoothed audio seconds at lastWall
	drift         float64   // Audio seconds per wall second, minus 1
	lastWall      time.Time // Wall time of the last accepted sample
	lastRaw       float64   // Last raw position seen
	lastProgress  time.Time // Wall time the raw position last advanced
	residual      float64
	quality       Quality
	sampleCount   int
	smoothingRate float64
}

// NewAudioClock creates a clock reading positions from src
func NewAudioClock(src PositionSource) *AudioClock {
	return &AudioClock{
		src:           src,
		now:           time.Now,
		smoothingRate: 0.1, // 10% weight to new samples
		quality:       QualityLost,
	}
}

// Sample takes one position measurement
func (c *AudioClock) Sample() {
	raw := c.src.Played().Seconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	wall := c.now()

	if c.sampleCount == 0 {
		c.reset(wall, raw)
		return
	}

	if raw != c.lastRaw {
		c.lastProgress = wall
		c.lastRaw = raw
	} else if wall.Sub(c.lastProgress) > stallTimeout {
		if c.quality != QualityLost {
			log.Printf("Audio clock lost: no progress for %v", wall.Sub(c.lastProgress))
		}
		c.quality = QualityLost
	}

	dt := wall.Sub(c.lastWall).Seconds()
	if dt <= 0 {
		return
	}

	predicted := c.position + (1+c.drift)*dt
	residual := raw - predicted

	if residual > outlierThreshold || residual < -outlierThreshold {
		log.Printf("Audio clock jump: residual %.3fs, resetting", residual)
		c.reset(wall, raw)
		return
	}

	c.position = predicted + c.smoothingRate*residual
	c.drift += c.smoothingRate * residual / dt
	c.lastWall = wall
	c.residual = residual
	c.sampleCount++

	if c.quality == QualityLost && wall.Sub(c.lastProgress) <= stallTimeout {
		c.quality = QualityGood
	}
	if c.quality != QualityLost {
		if residual > degradedThreshold || residual < -degradedThreshold {
			c.quality = QualityDegraded
		} else {
			c.quality = QualityGood
		}
	}

	if c.sampleCount < 5 {
		log.Printf("Clock sample #%d: position=%.3fs drift=%.6f residual=%.4fs",
			c.sampleCount, c.position, c.drift, residual)
	}
}

func (c *AudioClock) reset(wall time.Time, raw float64) {
	c.position = raw
	c.drift = 0
	c.lastWall = wall
	c.lastRaw = raw
	c.lastProgress = wall
	c.residual = 0
	c.sampleCount = 1
	c.quality = QualityGood
}

// Now returns the estimated audio position
func (c *AudioClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sampleCount == 0 {
		return 0
	}
	return c.position + (1+c.drift)*c.now().Sub(c.lastWall).Seconds()
}

// AudioTime samples the device and returns the current audio position.
// Every frame shares the same live position; ok is false while the clock
// is lost.
func (c *AudioClock) AudioTime(frame int) (float64, bool) {
	c.Sample()
	if c.Quality() == QualityLost {
		return 0, false
	}
	return c.Now(), true
}

// Quality returns the current clock quality
func (c *AudioClock) Quality() Quality {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quality
}

// Stats returns the current drift and last residual
func (c *AudioClock) Stats() (drift, residual float64, quality Quality) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drift, c.residual, c.quality
}
