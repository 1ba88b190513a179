// ABOUTME: Dual-buffer reconstruction of Robot audio
// ABOUTME: Interleaves EVEN and ODD half-rate packets onto one lattice and fills gaps
package reconstruct

import (
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/scummtools/robot-go/pkg/audio"
)

// Stride is the lattice period P in output samples
type Stride int

const (
	// StridePair places EVEN and ODD samples on alternating outputs
	StridePair Stride = 2

	// StrideQuad leaves one interpolated output between each supplied sample
	StrideQuad Stride = 4
)

// DefaultMaxLength caps the output at roughly an hour and a half of 44100 Hz audio
const DefaultMaxLength = 1 << 28

var (
	ErrParityMismatch   = errors.New("parity does not match stream position")
	ErrNegativePosition = errors.New("negative stream position")
	ErrTooLong          = errors.New("reconstructed stream exceeds maximum length")
	ErrInvalidStride    = errors.New("invalid stride")
)

// ParseStride converts a period value to a Stride
func ParseStride(v int) (Stride, error) {
	switch Stride(v) {
	case StridePair, StrideQuad:
		return Stride(v), nil
	}
	return 0, fmt.Errorf("%w: %d (want 2 or 4)", ErrInvalidStride, v)
}

// OutputRate returns the rate of the reconstructed stream for a source
// recorded at streamRate. Each EVEN/ODD pair spans P outputs, so the
// quad lattice doubles the rate.
func (s Stride) OutputRate(streamRate int) int {
	return streamRate * int(s) / 2
}

func (s Stride) String() string {
	switch s {
	case StridePair:
		return "pair"
	case StrideQuad:
		return "quad"
	default:
		return fmt.Sprintf("stride(%d)", int(s))
	}
}

// Options configures a Reconstructor
type Options struct {
	Stride       Stride
	TargetLength int // Pad or truncate the output to this many samples when > 0
	MaxLength    int // Defaults to DefaultMaxLength
}

// Stats describes how each output sample was produced
type Stats struct {
	Packets      int
	Supplied     int
	Interpolated int
	Held         int
	Underrun     int
	Overlaps     int
	Snapped      int
	Truncated    int
}

// Result is a finalized stream
type Result struct {
	Samples []int16
	Stride  Stride
	Stats   Stats
}

type packet struct {
	seq      int
	position int32
	parity   audio.Parity
	samples  []int16
}

// Reconstructor accumulates decoded packets. It is not safe for
// concurrent use.
type Reconstructor struct {
	opts    Options
	packets []packet
	snapped int
}

// New creates a Reconstructor, defaulting to StrideQuad
func New(opts Options) *Reconstructor {
	if opts.Stride == 0 {
		opts.Stride = StrideQuad
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	return &Reconstructor{opts: opts}
}

// Stride returns the lattice period in use
func (r *Reconstructor) Stride() Stride {
	return r.opts.Stride
}

// Len returns the number of appended packets
func (r *Reconstructor) Len() int {
	return len(r.packets)
}

// Append records a decoded packet at its stream position. The samples
// slice is retained.
func (r *Reconstructor) Append(samples []int16, parity audio.Parity, position int32) error {
	if position < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePosition, position)
	}
	if want := audio.ParityOf(position); parity != want {
		return fmt.Errorf("%w: position %d is %v, got %v", ErrParityMismatch, position, want, parity)
	}

	if snapped := snap(position); snapped != position {
		if r.snapped < 5 {
			log.Printf("Snapping odd position %d to %d", position, snapped)
		}
		r.snapped++
		position = snapped
	}

	r.packets = append(r.packets, packet{
		seq:      len(r.packets),
		position: position,
		parity:   parity,
		samples:  samples,
	})
	return nil
}

// snap moves an ODD position onto the 4k+2 lattice
func snap(position int32) int32 {
	if audio.ParityOf(position) == audio.ParityOdd && position%4 != 2 {
		return position&^3 + 2
	}
	return position
}

// OutputIndex returns the output sample at which the first sample of a
// packet appended at position lands
func (r *Reconstructor) OutputIndex(position int32) int64 {
	return r.base(snap(position))
}

func (r *Reconstructor) base(position int32) int64 {
	return int64(position) * int64(r.opts.Stride) / 4
}

// cell returns the lattice cell start, shared by the EVEN and ODD
// samples of the same index
func (r *Reconstructor) cell(position int32) int64 {
	return r.base(position &^ 3)
}

// Finalize renders the stream. It can be called repeatedly and does not
// consume the appended packets.
func (r *Reconstructor) Finalize() (*Result, error) {
	p := int64(r.opts.Stride)
	if p != int64(StridePair) && p != int64(StrideQuad) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStride, p)
	}

	order := slices.Clone(r.packets)
	slices.SortStableFunc(order, func(a, b packet) int {
		switch {
		case a.position < b.position:
			return -1
		case a.position > b.position:
			return 1
		}
		return 0
	})

	var natural int64
	for _, pk := range order {
		if len(pk.samples) == 0 {
			continue
		}
		natural = max(natural, r.cell(pk.position)+int64(len(pk.samples))*p)
	}

	length := natural
	if r.opts.TargetLength > 0 {
		length = int64(r.opts.TargetLength)
	}
	if length > int64(r.opts.MaxLength) {
		return nil, fmt.Errorf("%w: %d samples (max %d)", ErrTooLong, length, r.opts.MaxLength)
	}

	n := int(length)
	out := make([]int16, n)
	supplied := make([]bool, n)
	covered := make([]bool, n)
	stats := Stats{Packets: len(order), Snapped: r.snapped}

	for _, pk := range order {
		cell := r.cell(pk.position)
		end := min(cell+int64(len(pk.samples))*p, length)
		for i := cell; i < end; i++ {
			covered[i] = true
		}

		base := r.base(pk.position)
		for k, s := range pk.samples {
			idx := base + int64(k)*p
			if idx >= length {
				stats.Truncated += len(pk.samples) - k
				break
			}
			if supplied[idx] {
				stats.Overlaps++
				continue
			}
			out[idx] = s
			supplied[idx] = true
		}
	}

	fill(out, supplied, covered, &stats)

	if stats.Overlaps > 0 {
		log.Printf("Reconstruct: %d overlapping samples ignored (first write wins)", stats.Overlaps)
	}
	if stats.Underrun > 0 {
		log.Printf("Reconstruct: %d samples not covered by any packet, filled with silence", stats.Underrun)
	}

	return &Result{Samples: out, Stride: r.opts.Stride, Stats: stats}, nil
}

// fill resolves every unsupplied output. Covered positions take the
// shift mean of their nearest supplied neighbours within the same covered
// run, or hold the single neighbour at an edge. Uncovered positions stay
// silent.
func fill(out []int16, supplied, covered []bool, stats *Stats) {
	n := len(out)
	next := make([]int, n)
	nearest := -1
	for i := n - 1; i >= 0; i-- {
		if !covered[i] {
			nearest = -1
		}
		if supplied[i] {
			nearest = i
		}
		next[i] = nearest
	}

	prev := -1
	loggedRun := false
	for i := 0; i < n; i++ {
		if supplied[i] {
			prev = i
			stats.Supplied++
			continue
		}
		if !covered[i] {
			prev = -1
			stats.Underrun++
			if !loggedRun {
				log.Printf("Reconstruct: underrun starting at sample %d", i)
				loggedRun = true
			}
			continue
		}

		right := next[i]
		switch {
		case prev >= 0 && right >= 0:
			out[i] = int16((int32(out[prev]) + int32(out[right])) >> 1)
			stats.Interpolated++
		case prev >= 0:
			out[i] = out[prev]
			stats.Held++
		case right >= 0:
			out[i] = out[right]
			stats.Held++
		default:
			stats.Underrun++
		}
	}
}
