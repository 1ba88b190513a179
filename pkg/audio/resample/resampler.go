// ABOUTME: Sample rate conversion for int16 audio
// ABOUTME: Wraps the go-audio-resampling polyphase resampler with int16 framing
package resample

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// tailFrames of silence are fed after the last input to drain the filter
const tailFrames = 2048

// Resampler converts interleaved int16 audio between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64

	resampler     resampling.Resampler
	needsResample bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) (*Resampler, error) {
	if inputRate <= 0 || outputRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid resampler config: %d -> %d Hz, %d channels", inputRate, outputRate, channels)
	}

	r := &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(outputRate) / float64(inputRate),
	}
	if inputRate == outputRate {
		return r, nil
	}

	config := &resampling.Config{
		InputRate:  float64(inputRate),
		OutputRate: float64(outputRate),
		Channels:   channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	rs, err := resampling.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	r.resampler = rs
	r.needsResample = true
	return r, nil
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return !r.needsResample
}

// Process converts one chunk of interleaved samples. Output may lag the
// input by the filter delay; successive calls continue the same stream.
func (r *Resampler) Process(input []int16) ([]int16, error) {
	if !r.needsResample {
		return input, nil
	}
	if len(input) == 0 {
		return nil, nil
	}

	in := make([]float64, len(input))
	for i, s := range input {
		in[i] = float64(s) / 32768.0
	}

	out, err := r.resampler.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return toInt16(out), nil
}

// OutputFrames returns how many output frames a whole-buffer conversion of
// inputFrames produces
func (r *Resampler) OutputFrames(inputFrames int) int {
	return int(float64(inputFrames)*r.ratio + 0.5)
}

// Convert resamples a complete buffer, draining the filter so the output
// holds exactly OutputFrames frames
func Convert(input []int16, inputRate, outputRate, channels int) ([]int16, error) {
	r, err := New(inputRate, outputRate, channels)
	if err != nil {
		return nil, err
	}
	if r.Passthrough() {
		return input, nil
	}

	want := r.OutputFrames(len(input)/channels) * channels
	out, err := r.Process(input)
	if err != nil {
		return nil, err
	}
	for tries := 0; len(out) < want && tries < 8; tries++ {
		tail, err := r.Process(make([]int16, tailFrames*channels))
		if err != nil {
			return nil, err
		}
		out = append(out, tail...)
	}
	if len(out) > want {
		out = out[:want]
	}
	return out, nil
}

func toInt16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		switch {
		case s > 1.0:
			out[i] = 32767
		case s < -1.0:
			out[i] = -32768
		default:
			out[i] = int16(s * 32767.0)
		}
	}
	return out
}
