// ABOUTME: FLAC file writer
// ABOUTME: Encodes int16 samples into verbatim FLAC frames
package encode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/scummtools/robot-go/pkg/audio"
)

// FLACBlockSize is the number of samples per channel in each FLAC frame
const FLACBlockSize = 4096

// WriteFLAC encodes interleaved samples as a 16-bit FLAC stream
func WriteFLAC(w io.Writer, samples []int16, format audio.Format) error {
	channels := format.Channels
	if channels != 1 && channels != 2 {
		return fmt.Errorf("unsupported flac channel count: %d", channels)
	}
	if format.SampleRate <= 0 {
		return fmt.Errorf("invalid flac sample rate: %d", format.SampleRate)
	}

	nframes := len(samples) / channels
	info := &meta.StreamInfo{
		BlockSizeMin:  FLACBlockSize,
		BlockSizeMax:  FLACBlockSize,
		SampleRate:    uint32(format.SampleRate),
		NChannels:     uint8(channels),
		BitsPerSample: 16,
		NSamples:      uint64(nframes),
	}
	if nframes < FLACBlockSize {
		info.BlockSizeMin = uint16(max(nframes, 16))
		info.BlockSizeMax = info.BlockSizeMin
	}

	enc, err := flac.NewEncoder(w, info)
	if err != nil {
		return fmt.Errorf("failed to create flac encoder: %w", err)
	}

	layout := frame.ChannelsMono
	if channels == 2 {
		layout = frame.ChannelsLR
	}

	for num, start := uint64(0), 0; start < nframes; num, start = num+1, start+FLACBlockSize {
		n := min(FLACBlockSize, nframes-start)
		subframes := make([]*frame.Subframe, channels)
		for ch := range subframes {
			data := make([]int32, n)
			for i := range data {
				data[i] = int32(samples[(start+i)*channels+ch])
			}
			subframes[ch] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   data,
				NSamples:  n,
			}
		}

		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        uint32(format.SampleRate),
				Channels:          layout,
				BitsPerSample:     16,
				Num:               num,
			},
			Subframes: subframes,
		}
		if err := enc.WriteFrame(f); err != nil {
			enc.Close()
			return fmt.Errorf("failed to write flac frame %d: %w", num, err)
		}
	}

	return enc.Close()
}
