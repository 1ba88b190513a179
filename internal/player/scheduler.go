// ABOUTME: Live playback scheduler
// ABOUTME: Feeds decoded audio to the output and paces frames with the sync controller
package player

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/scummtools/robot-go/internal/sync"
	"github.com/scummtools/robot-go/pkg/audio"
	"github.com/scummtools/robot-go/pkg/audio/output"
	"github.com/scummtools/robot-go/pkg/robot"
	"github.com/scummtools/robot-go/pkg/session"
	psync "github.com/scummtools/robot-go/pkg/sync"
)

// DefaultChunk is the amount of audio handed to the output per write
const DefaultChunk = 50 * time.Millisecond

// FrameSink receives each presented frame
type FrameSink interface {
	ShowFrame(frame int, video *robot.VideoChunk)
}

// Config configures a Scheduler
type Config struct {
	Chunk         time.Duration // Audio per output write, defaults to DefaultChunk
	CheckInterval float64       // Sync check interval in video seconds
}

// Status is a snapshot of playback state
type Status struct {
	Frame      int
	FrameCount int
	Regime     psync.Regime
	Rate       float64
	VideoTime  float64
	AudioTime  float64
	Drift      float64 // Video minus audio seconds
	Underruns  int
	Quality    sync.Quality
	Done       bool
}

// Scheduler plays one decoded session
type Scheduler struct {
	res    *session.Result
	ct     *robot.Container
	out    output.Output
	clock  *sync.AudioClock
	ctrl   *psync.Controller
	sink   FrameSink
	chunk  int
	status chan Status
	sleep  func(ctx context.Context, d time.Duration) error
	played int
	shown  int
}

// Shown returns the number of frames presented so far
func (s *Scheduler) Shown() int {
	return s.shown
}

// NewScheduler prepares playback of res on out. ct may be nil when no
// frame consumer needs video metadata.
func NewScheduler(res *session.Result, ct *robot.Container, out output.Output, cfg Config) (*Scheduler, error) {
	if cfg.Chunk <= 0 {
		cfg.Chunk = DefaultChunk
	}

	clock := sync.NewAudioClock(out)
	ctrl, err := psync.NewController(psync.Config{
		NormalRate:    float64(res.Header.FrameRate),
		FrameCount:    res.Header.FrameCount,
		AudioDuration: res.Duration(),
		CheckInterval: cfg.CheckInterval,
	}, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync controller: %w", err)
	}

	return &Scheduler{
		res:    res,
		ct:     ct,
		out:    out,
		clock:  clock,
		ctrl:   ctrl,
		chunk:  max(1, int(cfg.Chunk.Seconds()*float64(res.Format.SampleRate))*res.Format.Channels),
		status: make(chan Status, 16),
		sleep:  sleepContext,
	}, nil
}

// SetSink attaches a frame consumer
func (s *Scheduler) SetSink(sink FrameSink) {
	s.sink = sink
}

// Status returns the status channel. It is closed when Run returns.
func (s *Scheduler) Status() <-chan Status {
	return s.status
}

// Run plays until the last frame has been held and all audio written
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.status)

	if err := s.out.Open(s.res.Format.SampleRate, s.res.Format.Channels); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	audioDone := make(chan error, 1)
	go func() {
		audioDone <- s.feedAudio(ctx)
	}()

	if err := s.runFrames(ctx); err != nil {
		cancel()
		<-audioDone
		return err
	}

	if err := <-audioDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("Playback finished: %d frames shown, %d samples played", s.shown, s.played)
	return nil
}

func (s *Scheduler) feedAudio(ctx context.Context) error {
	samples := s.res.Samples
	for s.played < len(samples) {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(s.played+s.chunk, len(samples))
		if err := s.out.Write(samples[s.played:end]); err != nil {
			return fmt.Errorf("audio write failed: %w", err)
		}
		s.played = end
	}
	return nil
}

func (s *Scheduler) runFrames(ctx context.Context) error {
	for {
		tick := s.ctrl.Tick()
		s.present(tick)
		s.publish(ctx, tick)

		if err := s.sleep(ctx, time.Duration(tick.Duration*float64(time.Second))); err != nil {
			return err
		}
		if tick.Done {
			return nil
		}
	}
}

func (s *Scheduler) present(tick psync.TickResult) {
	s.shown++
	if s.sink == nil {
		return
	}
	var video *robot.VideoChunk
	if s.ct != nil {
		if rec, err := s.ct.RecordAt(tick.Frame); err == nil {
			for chunk, err := range s.ct.Chunks(rec) {
				if err != nil {
					log.Printf("Frame %d: %v", tick.Frame, err)
					break
				}
				if chunk.Kind == robot.ChunkVideo {
					video = chunk.Video
				}
			}
		}
	}
	s.sink.ShowFrame(tick.Frame, video)
}

func (s *Scheduler) publish(ctx context.Context, tick psync.TickResult) {
	_, _, quality := s.clock.Stats()
	audioTime := s.clock.Now()
	videoTime := s.ctrl.VideoTime()
	st := Status{
		Frame:      tick.Frame,
		FrameCount: s.res.Header.FrameCount,
		Regime:     tick.Regime,
		Rate:       tick.Rate,
		VideoTime:  videoTime,
		AudioTime:  audioTime,
		Drift:      videoTime - audioTime,
		Underruns:  s.res.Stats.Underrun,
		Quality:    quality,
		Done:       tick.Done,
	}
	if tick.Done {
		select {
		case s.status <- st:
		case <-ctx.Done():
		}
		return
	}
	select {
	case s.status <- st:
	default:
		// Drop stale status when nobody is reading
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Duration returns the playback length of the session
func (s *Scheduler) Duration() time.Duration {
	return audio.SamplesToDuration(len(s.res.Samples), s.res.Format.SampleRate)
}
