// ABOUTME: Comparison of reconstructed audio against reference recordings
// ABOUTME: Scores both interpolation strides and recommends the closer one
package reference

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/scummtools/robot-go/pkg/audio"
	"github.com/scummtools/robot-go/pkg/audio/decode"
	"github.com/scummtools/robot-go/pkg/audio/reconstruct"
	"github.com/scummtools/robot-go/pkg/audio/resample"
	"github.com/scummtools/robot-go/pkg/session"
)

// Metrics summarises the difference between two sample streams
type Metrics struct {
	Compared      int     // Samples compared, the shorter length
	LengthDelta   int     // Candidate length minus reference length
	MaxAbsDiff    int     // Largest per-sample difference
	RMSE          float64 // Root mean square error over compared samples
	FirstMismatch int     // Index of the first differing sample, -1 if none
}

// Exact reports whether the streams are identical
func (m Metrics) Exact() bool {
	return m.FirstMismatch < 0 && m.LengthDelta == 0
}

// StrideResult is the score of one stride
type StrideResult struct {
	Stride  reconstruct.Stride
	Metrics Metrics
}

// Report is the outcome of a stride comparison
type Report struct {
	Results []StrideResult
	Best    reconstruct.Stride
}

// Track is a mono reference recording
type Track struct {
	Samples    []int16
	SampleRate int
}

// Load reads a reference recording and downmixes it to mono
func Load(r io.Reader, codec string) (*Track, error) {
	samples, format, err := decode.ReadAll(r, codec)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference: %w", err)
	}
	if format.Channels > 1 {
		samples = audio.Downmix(samples, format.Channels)
	}
	return &Track{Samples: samples, SampleRate: format.SampleRate}, nil
}

// At returns the track samples at sampleRate
func (t *Track) At(sampleRate int) ([]int16, error) {
	if t.SampleRate == sampleRate {
		return t.Samples, nil
	}
	log.Printf("Resampling reference from %d to %d Hz", t.SampleRate, sampleRate)
	samples, err := resample.Convert(t.Samples, t.SampleRate, sampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to resample reference: %w", err)
	}
	return samples, nil
}

// Compare measures candidate against ref
func Compare(ref, candidate []int16) Metrics {
	n := min(len(ref), len(candidate))
	m := Metrics{
		Compared:      n,
		LengthDelta:   len(candidate) - len(ref),
		FirstMismatch: -1,
	}

	var sumSq float64
	for i := 0; i < n; i++ {
		d := int(candidate[i]) - int(ref[i])
		if d == 0 {
			continue
		}
		if m.FirstMismatch < 0 {
			m.FirstMismatch = i
		}
		if d < 0 {
			d = -d
		}
		m.MaxAbsDiff = max(m.MaxAbsDiff, d)
		sumSq += float64(d) * float64(d)
	}
	if n > 0 {
		m.RMSE = math.Sqrt(sumSq / float64(n))
	}
	return m
}

// Evaluate decodes data under both strides and compares each with ref
// at the stride's output rate. opts supplies every option except the
// stride.
func Evaluate(ctx context.Context, data []byte, ref *Track, opts session.Options) (*Report, error) {
	report := &Report{}
	for _, stride := range []reconstruct.Stride{reconstruct.StrideQuad, reconstruct.StridePair} {
		opts.Stride = stride
		res, err := session.Decode(ctx, data, opts)
		if err != nil {
			return nil, fmt.Errorf("decode with %s stride: %w", stride, err)
		}
		samples, err := ref.At(res.Format.SampleRate)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, StrideResult{Stride: stride, Metrics: Compare(samples, res.Samples)})
	}

	best := report.Results[0]
	for _, r := range report.Results[1:] {
		if r.Metrics.RMSE < best.Metrics.RMSE {
			best = r
		}
	}
	report.Best = best.Stride
	return report, nil
}
