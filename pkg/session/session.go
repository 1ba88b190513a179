// ABOUTME: Robot decode session
// ABOUTME: Parses a container, decodes every audio packet and reconstructs the stream
package session

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/scummtools/robot-go/pkg/audio"
	"github.com/scummtools/robot-go/pkg/audio/decode"
	"github.com/scummtools/robot-go/pkg/audio/reconstruct"
	"github.com/scummtools/robot-go/pkg/robot"
	"github.com/scummtools/robot-go/pkg/sync"
)

const (
	primerEvenPosition = 0
	primerOddPosition  = 2
)

// Options controls a decode session
type Options struct {
	Stride        reconstruct.Stride
	IncludePrimer bool // Place the header primer at the start of the stream
	PadToVideo    bool // Pad or truncate audio to the declared video length
}

// DefaultOptions returns the options used by the command line tools
func DefaultOptions() Options {
	return Options{
		Stride:        reconstruct.StrideQuad,
		IncludePrimer: true,
		PadToVideo:    true,
	}
}

// PacketInfo describes one decoded frame packet
type PacketInfo struct {
	Frame    int
	Position int32
	Parity   audio.Parity
	Samples  int
}

// Stats extends the reconstruction stats with session-level counters
type Stats struct {
	reconstruct.Stats
	PrimerSamples     int
	SkippedEmptyVideo int
	SkippedNegative   int
}

// Result is the outcome of a decode session
type Result struct {
	ID       string
	Header   robot.Header
	Samples  []int16
	Format   audio.Format
	Stride   reconstruct.Stride
	Timeline *sync.Timeline
	Packets  []PacketInfo
	Stats    Stats
}

// Duration returns the playback length of the reconstructed audio in seconds
func (r *Result) Duration() float64 {
	return float64(len(r.Samples)) / float64(r.Format.SampleRate)
}

// Buffer wraps the samples as an audio buffer
func (r *Result) Buffer() audio.Buffer {
	return audio.Buffer{Samples: r.Samples, Format: r.Format}
}

// Decode parses data and reconstructs its audio
func Decode(ctx context.Context, data []byte, opts Options) (*Result, error) {
	ct, err := robot.Open(data)
	if err != nil {
		return nil, err
	}
	return DecodeContainer(ctx, ct, opts)
}

// DecodeContainer reconstructs the audio of an opened container
func DecodeContainer(ctx context.Context, ct *robot.Container, opts Options) (*Result, error) {
	if opts.Stride == 0 {
		opts.Stride = reconstruct.StrideQuad
	}
	header := ct.Header()

	format := audio.RobotFormat()
	format.SampleRate = opts.Stride.OutputRate(audio.RobotSampleRate)

	res := &Result{
		ID:       uuid.NewString(),
		Header:   header,
		Format:   format,
		Stride:   opts.Stride,
		Timeline: sync.NewTimeline(),
	}

	rcOpts := reconstruct.Options{Stride: opts.Stride}
	if opts.PadToVideo {
		rcOpts.TargetLength = header.DeclaredSamplesAt(format.SampleRate)
	}
	rc := reconstruct.New(rcOpts)

	if opts.IncludePrimer && header.HasAudio {
		n, err := appendPrimer(rc, ct.Primer())
		if err != nil {
			return nil, err
		}
		res.Stats.PrimerSamples = n
	}

	dec, err := decode.NewDPCM(audio.Format{Codec: "dpcm16", SampleRate: audio.RobotSampleRate, Channels: 1, BitDepth: 16}, true)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	for rec := range ct.Records() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := ct.AudioAt(rec)
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			continue
		}
		if rec.VideoSize == 0 {
			if res.Stats.SkippedEmptyVideo < 5 {
				log.Printf("Skipping audio of frame %d: empty video chunk", rec.Index)
			}
			res.Stats.SkippedEmptyVideo++
			continue
		}
		if chunk.StreamPosition < 0 {
			if res.Stats.SkippedNegative < 5 {
				log.Printf("Skipping audio of frame %d: negative position %d", rec.Index, chunk.StreamPosition)
			}
			res.Stats.SkippedNegative++
			continue
		}

		samples, err := dec.Decode(chunk.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode frame %d audio: %w", rec.Index, err)
		}
		if err := rc.Append(samples, chunk.Parity(), chunk.StreamPosition); err != nil {
			return nil, fmt.Errorf("frame %d: %w", rec.Index, err)
		}

		if len(res.Packets) < 5 {
			log.Printf("Frame %d: %v packet at %d, %d samples", rec.Index, chunk.Parity(), chunk.StreamPosition, len(samples))
		}
		res.Packets = append(res.Packets, PacketInfo{
			Frame:    rec.Index,
			Position: chunk.StreamPosition,
			Parity:   chunk.Parity(),
			Samples:  len(samples),
		})

		// Same placement as the samples, so the primer offset is included
		res.Timeline.Set(rec.Index, float64(rc.OutputIndex(chunk.StreamPosition))/float64(format.SampleRate))
	}

	out, err := rc.Finalize()
	if err != nil {
		return nil, err
	}
	res.Samples = out.Samples
	res.Stats.Stats = out.Stats

	log.Printf("Decoded %d packets into %d samples at %d Hz (%.3fs, stride %v, %d underrun)",
		len(res.Packets), len(res.Samples), format.SampleRate, res.Duration(), opts.Stride, out.Stats.Underrun)
	return res, nil
}

func appendPrimer(rc *reconstruct.Reconstructor, p robot.Primer) (int, error) {
	if p.Empty() {
		return 0, nil
	}
	even, _ := decode.DecodeDPCM16(p.Even, 0)
	odd, _ := decode.DecodeDPCM16(p.Odd, 0)
	if len(even) > 0 {
		if err := rc.Append(even, audio.ParityEven, primerEvenPosition); err != nil {
			return 0, fmt.Errorf("even primer: %w", err)
		}
	}
	if len(odd) > 0 {
		if err := rc.Append(odd, audio.ParityOdd, primerOddPosition); err != nil {
			return 0, fmt.Errorf("odd primer: %w", err)
		}
	}
	return len(even) + len(odd), nil
}
