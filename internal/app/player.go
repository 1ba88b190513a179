// ABOUTME: Live player application orchestration
// ABOUTME: Loads and decodes a Robot file, then plays it with the TUI or logs
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/scummtools/robot-go/internal/cache"
	"github.com/scummtools/robot-go/internal/player"
	"github.com/scummtools/robot-go/internal/storage"
	"github.com/scummtools/robot-go/internal/ui"
	"github.com/scummtools/robot-go/pkg/audio/output"
	"github.com/scummtools/robot-go/pkg/audio/reconstruct"
	"github.com/scummtools/robot-go/pkg/session"
)

// Config holds player configuration
type Config struct {
	Input         string // Local path, s3:// URI, or resource id
	Stride        reconstruct.Stride
	CheckInterval float64
	Volume        int
	BufferMs      int
	UseTUI        bool

	Cache  *cache.Cache            // Optional decode cache
	Source *storage.ResourceSource // Resolves numeric inputs when set
	S3     storage.S3Config        // Credentials context for s3:// inputs
	Output output.Output           // Defaults to the oto device
}

// Player represents the main player application
type Player struct {
	config    Config
	output    output.Output
	scheduler *player.Scheduler
	volCtrl   *ui.VolumeControl
	tuiProg   *tea.Program
	ctx       context.Context
	cancel    context.CancelFunc
	last      player.Status
}

// New creates a new player
func New(config Config) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	if config.Stride == 0 {
		config.Stride = reconstruct.StrideQuad
	}

	out := config.Output
	if out == nil {
		out = output.NewOto()
	}

	return &Player{
		config: config,
		output: out,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start loads the input and plays it to the end, or until Stop
func (p *Player) Start() error {
	data, name, err := LoadInput(p.ctx, p.config.Input, p.config.Source, p.config.S3)
	if err != nil {
		return err
	}

	opts := session.DefaultOptions()
	opts.Stride = p.config.Stride
	res, hit, err := cache.Decode(p.ctx, p.config.Cache, data, opts)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	log.Printf("Decoded %s: %d frames at %d fps, %.3fs audio (cached: %v, underrun samples: %d)",
		name, res.Header.FrameCount, res.Header.FrameRate, res.Duration(), hit, res.Stats.Underrun)

	p.scheduler, err = player.NewScheduler(res, nil, p.output, player.Config{
		Chunk:         time.Duration(p.config.BufferMs) * time.Millisecond,
		CheckInterval: p.config.CheckInterval,
	})
	if err != nil {
		return err
	}
	defer p.output.Close()

	p.applyVolume(p.config.Volume, false)

	if p.config.UseTUI {
		p.volCtrl = ui.NewVolumeControl()
		p.tuiProg = ui.Run(ui.FileInfo{
			Name:       name,
			Version:    res.Header.Version,
			FrameRate:  int(res.Header.FrameRate),
			SampleRate: res.Format.SampleRate,
			Stride:     res.Stride.String(),
			Duration:   res.Duration(),
		}, p.volCtrl)
		go func() {
			if _, err := p.tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		go p.handleVolumeControl()
	}

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		p.forwardStatus()
	}()

	err = p.scheduler.Run(p.ctx)
	<-forwarded
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// forwardStatus sends scheduler updates to the TUI or the log
func (p *Player) forwardStatus() {
	lastLog := time.Time{}
	for st := range p.scheduler.Status() {
		regimeChanged := st.Regime != p.last.Regime
		p.last = st

		if p.tuiProg != nil {
			p.tuiProg.Send(ui.StatusMsg{Status: st})
			continue
		}
		if regimeChanged || st.Done || time.Since(lastLog) >= time.Second {
			log.Printf("Frame %d/%d %s %.0f fps drift %+.3fs clock %s",
				st.Frame, st.FrameCount-1, st.Regime, st.Rate, st.Drift, st.Quality)
			lastLog = time.Now()
		}
	}
}

// handleVolumeControl processes volume changes from the TUI
func (p *Player) handleVolumeControl() {
	for {
		select {
		case vol := <-p.volCtrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			p.applyVolume(vol.Volume, vol.Muted)
		case <-p.volCtrl.Quit:
			log.Printf("Received quit signal from TUI")
			p.cancel()
			return
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Player) applyVolume(volume int, muted bool) {
	vc, ok := p.output.(output.VolumeControl)
	if !ok {
		return
	}
	vc.SetVolume(volume)
	vc.SetMuted(muted)
}

// LastStatus returns the final playback status once Start has returned
func (p *Player) LastStatus() player.Status {
	return p.last
}

// Done returns a channel closed when the player stops
func (p *Player) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Stop stops playback and the TUI
func (p *Player) Stop() {
	p.cancel()
	if p.tuiProg != nil {
		p.tuiProg.Quit()
	}
}
