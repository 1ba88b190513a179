// ABOUTME: FLAC file reader
// ABOUTME: Decodes FLAC reference audio to interleaved int16 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/scummtools/robot-go/pkg/audio"
)

// ReadFLAC decodes an entire FLAC stream
func ReadFLAC(r io.Reader) ([]int16, audio.Format, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to open flac stream: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bps := int(stream.Info.BitsPerSample)
	format := audio.Format{
		Codec:      "flac",
		SampleRate: int(stream.Info.SampleRate),
		Channels:   channels,
		BitDepth:   16,
	}

	samples := make([]int16, 0, int(stream.Info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, audio.Format{}, fmt.Errorf("flac frame error: %w", err)
		}

		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, toInt16(frame.Subframes[ch].Samples[i], bps))
			}
		}
	}

	return samples, format, nil
}

// toInt16 rescales a sample of the given bit depth to 16 bits
func toInt16(sample int32, bps int) int16 {
	switch {
	case bps > 16:
		return int16(sample >> (bps - 16))
	case bps < 16:
		return int16(sample << (16 - bps))
	}
	return int16(sample)
}
