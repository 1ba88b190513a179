// ABOUTME: Tests for the live audio clock
// ABOUTME: Tests smoothing, drift estimation, jump reset and stall detection
package sync

import (
	"math"
	"testing"
	"time"
)

type fakeSource struct {
	played time.Duration
}

func (f *fakeSource) Played() time.Duration { return f.played }

type fakeWall struct {
	t time.Time
}

func (w *fakeWall) now() time.Time { return w.t }

func (w *fakeWall) advance(d time.Duration) { w.t = w.t.Add(d) }

func newTestClock() (*AudioClock, *fakeSource, *fakeWall) {
	src := &fakeSource{}
	wall := &fakeWall{t: time.Unix(1000, 0)}
	c := NewAudioClock(src)
	c.now = wall.now
	return c, src, wall
}

func TestAudioClockInitialSample(t *testing.T) {
	c, src, _ := newTestClock()
	if c.Quality() != QualityLost {
		t.Errorf("expected lost before first sample, got %v", c.Quality())
	}

	src.played = 2 * time.Second
	c.Sample()

	if c.Quality() != QualityGood {
		t.Errorf("expected good after first sample, got %v", c.Quality())
	}
	if c.Now() != 2 {
		t.Errorf("expected position 2s, got %v", c.Now())
	}
}

func TestAudioClockTracksSteadyPlayback(t *testing.T) {
	c, src, wall := newTestClock()
	c.Sample()

	for i := 0; i < 50; i++ {
		wall.advance(20 * time.Millisecond)
		src.played += 20 * time.Millisecond
		c.Sample()
	}

	if got := c.Now(); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("expected position 1.0s, got %v", got)
	}
	drift, residual, quality := c.Stats()
	if math.Abs(drift) > 1e-9 || math.Abs(residual) > 1e-9 || quality != QualityGood {
		t.Errorf("unexpected stats drift=%v residual=%v quality=%v", drift, residual, quality)
	}
}

func TestAudioClockLearnsDrift(t *testing.T) {
	c, src, wall := newTestClock()
	c.Sample()

	// Device runs 1% fast
	for i := 0; i < 500; i++ {
		wall.advance(20 * time.Millisecond)
		src.played += 20200 * time.Microsecond
		c.Sample()
	}

	drift, _, _ := c.Stats()
	if math.Abs(drift-0.01) > 0.002 {
		t.Errorf("expected drift near 0.01, got %v", drift)
	}
}

func TestAudioClockSmoothsSteps(t *testing.T) {
	c, src, wall := newTestClock()
	c.Sample()

	// Position arrives in 100ms steps while sampled every 20ms
	for i := 1; i <= 100; i++ {
		wall.advance(20 * time.Millisecond)
		if i%5 == 0 {
			src.played += 100 * time.Millisecond
		}
		c.Sample()
	}

	if got := c.Now(); math.Abs(got-2.0) > 0.1 {
		t.Errorf("expected position near 2.0s, got %v", got)
	}
}

func TestAudioClockJumpResets(t *testing.T) {
	c, src, wall := newTestClock()
	c.Sample()

	wall.advance(20 * time.Millisecond)
	src.played = 5 * time.Second
	c.Sample()

	if got := c.Now(); got != 5 {
		t.Errorf("expected reset to 5s, got %v", got)
	}
}

func TestAudioClockStall(t *testing.T) {
	c, src, wall := newTestClock()
	src.played = time.Second
	c.Sample()

	if _, ok := c.AudioTime(0); !ok {
		t.Fatal("expected audio time while playing")
	}

	// Position frozen past the stall timeout
	for i := 0; i < 400; i++ {
		wall.advance(20 * time.Millisecond)
		c.Sample()
	}

	if c.Quality() != QualityLost {
		t.Errorf("expected lost after stall, got %v", c.Quality())
	}
	if _, ok := c.AudioTime(0); ok {
		t.Error("expected no audio time while lost")
	}

	// Progress resumes
	for i := 0; i < 5; i++ {
		wall.advance(20 * time.Millisecond)
		src.played += 20 * time.Millisecond
		c.Sample()
	}
	if c.Quality() == QualityLost {
		t.Error("expected clock to recover")
	}
}

func TestQualityString(t *testing.T) {
	tests := []struct {
		q        Quality
		expected string
	}{
		{QualityGood, "good"},
		{QualityDegraded, "degraded"},
		{QualityLost, "lost"},
	}
	for _, tt := range tests {
		if tt.q.String() != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, tt.q.String())
		}
	}
}
