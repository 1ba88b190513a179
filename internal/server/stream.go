// ABOUTME: Per-client streaming of decoded audio and frame events
// ABOUTME: Paces timestamped audio chunks and interleaves controller frame events
package server

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/scummtools/robot-go/internal/protocol"
	"github.com/scummtools/robot-go/pkg/audio"
	"github.com/scummtools/robot-go/pkg/audio/encode"
	"github.com/scummtools/robot-go/pkg/audio/resample"
	psync "github.com/scummtools/robot-go/pkg/sync"
)

// sentClock reports the audio sent so far as the stream's audio time
type sentClock struct {
	seconds float64
}

func (c *sentClock) AudioTime(frame int) (float64, bool) {
	return c.seconds, true
}

// streamFormat is the negotiated codec with the samples it is fed from
type streamFormat struct {
	format      audio.Format
	samples     []int16
	encoder     encode.Encoder
	chunkFrames int
}

func (s *Server) prepare(codec string) (*streamFormat, error) {
	switch codec {
	case "opus":
		s.opusOnce.Do(func() {
			s.opusSamples, s.opusErr = resample.Convert(s.res.Samples, s.res.Format.SampleRate, OpusSampleRate, s.res.Format.Channels)
			if s.opusErr == nil {
				log.Printf("Resampled %d samples to %d Hz for Opus", len(s.res.Samples), OpusSampleRate)
			}
		})
		if s.opusErr != nil {
			return nil, fmt.Errorf("failed to resample for opus: %w", s.opusErr)
		}
		format := audio.Format{Codec: "opus", SampleRate: OpusSampleRate, Channels: s.res.Format.Channels, BitDepth: 16}
		enc, err := encode.NewOpus(format)
		if err != nil {
			return nil, err
		}
		return &streamFormat{
			format:      format,
			samples:     s.opusSamples,
			encoder:     enc,
			chunkFrames: enc.(*encode.OpusEncoder).FrameSize(),
		}, nil

	case "pcm":
		format := s.res.Format
		enc, err := encode.NewPCM(format)
		if err != nil {
			return nil, err
		}
		return &streamFormat{
			format:      format,
			samples:     s.res.Samples,
			encoder:     enc,
			chunkFrames: max(1, int(s.config.ChunkDuration.Seconds()*float64(format.SampleRate))),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
}

// stream sends stream/start, the audio with interleaved frame events, and stream/end
func (s *Server) stream(ctx context.Context, client *Client) error {
	sf, err := s.prepare(client.Codec)
	if err != nil {
		return err
	}
	defer sf.encoder.Close()

	clock := &sentClock{}
	ctrl, err := psync.NewController(psync.Config{
		NormalRate:    float64(s.res.Header.FrameRate),
		FrameCount:    s.res.Header.FrameCount,
		AudioDuration: s.res.Duration(),
	}, clock)
	if err != nil {
		return fmt.Errorf("failed to create sync controller: %w", err)
	}

	if err := s.sendMessage(ctx, client, protocol.TypeServerHello, protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
	}); err != nil {
		return err
	}
	if err := s.sendMessage(ctx, client, protocol.TypeStreamStart, protocol.StreamStart{
		Codec:      sf.format.Codec,
		SampleRate: sf.format.SampleRate,
		Channels:   sf.format.Channels,
		BitDepth:   sf.format.BitDepth,
		FrameRate:  int(s.res.Header.FrameRate),
		FrameCount: s.res.Header.FrameCount,
		Duration:   s.res.Duration(),
		SessionID:  s.res.ID,
	}); err != nil {
		return err
	}

	var tick <-chan time.Time
	if !s.config.Unpaced {
		interval := time.Duration(float64(sf.chunkFrames) / float64(sf.format.SampleRate) * float64(time.Second))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	step := sf.chunkFrames * sf.format.Channels
	rate := float64(sf.format.SampleRate)
	nextFrame := 0.0
	chunks := 0

	for offset := 0; offset < len(sf.samples); offset += step {
		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		end := min(offset+step, len(sf.samples))
		chunk := sf.samples[offset:end]
		if sf.format.Codec == "opus" && len(chunk) < step {
			chunk = append(chunk[:len(chunk):len(chunk)], make([]int16, step-len(chunk))...)
		}

		payload, err := sf.encoder.Encode(chunk)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", chunks, err)
		}

		timestamp := int64(offset/sf.format.Channels) * int64(time.Second/time.Microsecond) / int64(sf.format.SampleRate)
		if err := s.send(ctx, client, protocol.AppendAudioChunk(nil, timestamp, payload)); err != nil {
			return err
		}
		chunks++

		clock.seconds = float64(end/sf.format.Channels) / rate
		if nextFrame, err = s.sendFrames(ctx, client, ctrl, nextFrame, clock.seconds); err != nil {
			return err
		}
	}

	if _, err := s.sendFrames(ctx, client, ctrl, nextFrame, math.Inf(1)); err != nil {
		return err
	}

	log.Printf("Stream to %s complete: %d chunks, %d frames", client.Name, chunks, s.res.Header.FrameCount)
	return s.sendMessage(ctx, client, protocol.TypeStreamEnd, protocol.StreamEnd{
		Frames:  s.res.Header.FrameCount,
		Samples: int64(len(sf.samples)),
	})
}

// sendFrames emits frame events that start before the given audio time
func (s *Server) sendFrames(ctx context.Context, client *Client, ctrl *psync.Controller, at, upTo float64) (float64, error) {
	for !ctrl.Done() && at < upTo {
		t := ctrl.Tick()
		err := s.sendMessage(ctx, client, protocol.TypeStreamFrame, protocol.StreamFrame{
			Frame:     t.Frame,
			Timestamp: int64(math.Round(at * 1e6)),
			Duration:  t.Duration,
			Regime:    t.Regime.String(),
		})
		if err != nil {
			return at, err
		}
		at += t.Duration
	}
	return at, nil
}
