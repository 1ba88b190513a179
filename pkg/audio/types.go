// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded buffers and the EVEN/ODD parity rule
package audio

import "time"

const (
	// RobotSampleRate is the fixed playback rate of Robot audio
	RobotSampleRate = 22050

	// RobotChannels is the channel count of reconstructed Robot audio
	RobotChannels = 1

	// RobotBitDepth is the sample width of reconstructed Robot audio
	RobotBitDepth = 16
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// RobotFormat returns the format of a reconstructed Robot stream
func RobotFormat() Format {
	return Format{
		Codec:      "pcm",
		SampleRate: RobotSampleRate,
		Channels:   RobotChannels,
		BitDepth:   RobotBitDepth,
	}
}

// Buffer is a slice of decoded PCM positioned on the stream timeline
type Buffer struct {
	Start   time.Duration // Offset of the first sample from stream start
	Samples []int16       // Interleaved PCM samples
	Format  Format
}

// Duration returns the playback length of the buffer
func (b Buffer) Duration() time.Duration {
	return SamplesToDuration(len(b.Samples)/max(b.Format.Channels, 1), b.Format.SampleRate)
}

// Parity tags a packet as belonging to the EVEN or ODD half-rate sub-stream
type Parity int

const (
	ParityEven Parity = iota
	ParityOdd
)

func (p Parity) String() string {
	if p == ParityOdd {
		return "odd"
	}
	return "even"
}

// ParityOf derives the parity of a packet from its stream position.
// Positions divisible by 4 are EVEN, everything else is ODD.
func ParityOf(streamPosition int32) Parity {
	if streamPosition%4 == 0 {
		return ParityEven
	}
	return ParityOdd
}

// SamplesToDuration converts a sample count at a rate to a duration
func SamplesToDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(samples) * int64(time.Second) / int64(sampleRate))
}

// ClampInt16 saturates v to the signed 16-bit range
func ClampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// Downmix averages interleaved frames into mono
func Downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}
