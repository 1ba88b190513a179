// ABOUTME: Tests for dual-buffer reconstruction
// ABOUTME: Covers lattice placement, interpolation, underrun fill and idempotence
package reconstruct

import (
	"errors"
	"slices"
	"testing"

	"github.com/scummtools/robot-go/pkg/audio"
)

type appendCall struct {
	samples  []int16
	parity   audio.Parity
	position int32
}

func finalize(t *testing.T, opts Options, calls ...appendCall) *Result {
	t.Helper()
	r := New(opts)
	for _, c := range calls {
		if err := r.Append(c.samples, c.parity, c.position); err != nil {
			t.Fatalf("Append(%v, %d): %v", c.parity, c.position, err)
		}
	}
	res, err := r.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return res
}

func TestFinalizePlacement(t *testing.T) {
	even := appendCall{[]int16{10, 20, 30}, audio.ParityEven, 0}
	odd := appendCall{[]int16{100, 200, 300}, audio.ParityOdd, 2}

	tests := []struct {
		name     string
		stride   Stride
		expected []int16
	}{
		{"quad", StrideQuad, []int16{10, 55, 100, 60, 20, 110, 200, 115, 30, 165, 300, 300}},
		{"pair", StridePair, []int16{10, 100, 20, 200, 30, 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := finalize(t, Options{Stride: tt.stride}, even, odd)
			if !slices.Equal(res.Samples, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, res.Samples)
			}
			if res.Stats.Supplied != 6 {
				t.Errorf("expected 6 supplied, got %d", res.Stats.Supplied)
			}
		})
	}
}

func TestFinalizeQuadLengthAndMeans(t *testing.T) {
	const n = 50
	even := make([]int16, n)
	odd := make([]int16, n)
	for i := range even {
		even[i] = int16(i*613 - 9000)
		odd[i] = int16(12000 - i*457)
	}

	res := finalize(t, Options{},
		appendCall{even, audio.ParityEven, 0},
		appendCall{odd, audio.ParityOdd, 2},
	)
	if len(res.Samples) != 4*n {
		t.Fatalf("expected %d samples, got %d", 4*n, len(res.Samples))
	}

	out := res.Samples
	for i := 1; i < len(out)-1; i += 2 {
		want := int16((int32(out[i-1]) + int32(out[i+1])) >> 1)
		if out[i] != want {
			t.Fatalf("sample %d: expected shift mean %d, got %d", i, want, out[i])
		}
	}
	if out[len(out)-1] != out[len(out)-2] {
		t.Errorf("expected trailing edge to hold")
	}
}

func TestFinalizeNegativeMeanUsesArithmeticShift(t *testing.T) {
	res := finalize(t, Options{},
		appendCall{[]int16{-3}, audio.ParityEven, 0},
		appendCall{[]int16{0}, audio.ParityOdd, 2},
	)
	expected := []int16{-3, -2, 0, 0}
	if !slices.Equal(res.Samples, expected) {
		t.Errorf("expected %v, got %v", expected, res.Samples)
	}
}

func TestFinalizeUnderrunAndTarget(t *testing.T) {
	calls := []appendCall{
		{[]int16{1, 2}, audio.ParityEven, 0},
		{[]int16{5}, audio.ParityEven, 16},
	}

	tests := []struct {
		name     string
		target   int
		length   int
		expected Stats
	}{
		{"natural", 0, 20, Stats{Packets: 2, Supplied: 3, Interpolated: 3, Held: 6, Underrun: 8}},
		{"padded", 24, 24, Stats{Packets: 2, Supplied: 3, Interpolated: 3, Held: 6, Underrun: 12}},
		{"truncated", 2, 2, Stats{Packets: 2, Supplied: 1, Held: 1, Truncated: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := finalize(t, Options{TargetLength: tt.target}, calls...)
			if len(res.Samples) != tt.length {
				t.Fatalf("expected %d samples, got %d", tt.length, len(res.Samples))
			}
			if res.Stats != tt.expected {
				t.Errorf("expected stats %+v, got %+v", tt.expected, res.Stats)
			}
		})
	}

	res := finalize(t, Options{}, calls...)
	expected := []int16{1, 1, 1, 1, 2, 2, 2, 2, 0, 0, 0, 0, 0, 0, 0, 0, 5, 5, 5, 5}
	if !slices.Equal(res.Samples, expected) {
		t.Errorf("expected %v, got %v", expected, res.Samples)
	}
}

func TestFinalizeOverlapFirstWriteWins(t *testing.T) {
	res := finalize(t, Options{},
		appendCall{[]int16{1, 1}, audio.ParityEven, 0},
		appendCall{[]int16{9, 9}, audio.ParityEven, 0},
	)
	if res.Samples[0] != 1 || res.Samples[4] != 1 {
		t.Errorf("expected first packet to win, got %v", res.Samples)
	}
	if res.Stats.Overlaps != 2 {
		t.Errorf("expected 2 overlaps, got %d", res.Stats.Overlaps)
	}
}

func TestAppendValidation(t *testing.T) {
	tests := []struct {
		name     string
		parity   audio.Parity
		position int32
		err      error
	}{
		{"even at odd position", audio.ParityEven, 2, ErrParityMismatch},
		{"odd at even position", audio.ParityOdd, 8, ErrParityMismatch},
		{"negative", audio.ParityOdd, -2, ErrNegativePosition},
		{"valid even", audio.ParityEven, 4, nil},
		{"valid odd", audio.ParityOdd, 6, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(Options{}).Append([]int16{1}, tt.parity, tt.position)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestAppendSnapsOddPositions(t *testing.T) {
	res := finalize(t, Options{},
		appendCall{[]int16{1}, audio.ParityEven, 0},
		appendCall{[]int16{7}, audio.ParityOdd, 3},
	)
	expected := []int16{1, 4, 7, 7}
	if !slices.Equal(res.Samples, expected) {
		t.Errorf("expected %v, got %v", expected, res.Samples)
	}
	if res.Stats.Snapped != 1 {
		t.Errorf("expected 1 snapped packet, got %d", res.Stats.Snapped)
	}
}

func TestFinalizeIdempotentAndOrderIndependent(t *testing.T) {
	a := appendCall{[]int16{100, -100, 50}, audio.ParityEven, 12}
	b := appendCall{[]int16{7, 8, 9}, audio.ParityOdd, 2}
	c := appendCall{[]int16{-1, -2}, audio.ParityEven, 0}

	r := New(Options{})
	for _, call := range []appendCall{a, b, c} {
		if err := r.Append(call.samples, call.parity, call.position); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	first, err := r.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	second, err := r.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !slices.Equal(first.Samples, second.Samples) || first.Stats != second.Stats {
		t.Error("repeated Finalize produced different output")
	}

	reordered := finalize(t, Options{}, c, b, a)
	if !slices.Equal(first.Samples, reordered.Samples) {
		t.Errorf("append order changed output:\n%v\n%v", first.Samples, reordered.Samples)
	}
}

func TestFinalizeEmpty(t *testing.T) {
	res := finalize(t, Options{})
	if len(res.Samples) != 0 {
		t.Errorf("expected empty output, got %d samples", len(res.Samples))
	}

	res = finalize(t, Options{TargetLength: 10})
	if len(res.Samples) != 10 || res.Stats.Underrun != 10 {
		t.Errorf("expected 10 silent samples, got %d (underrun %d)", len(res.Samples), res.Stats.Underrun)
	}
}

func TestFinalizeMaxLength(t *testing.T) {
	r := New(Options{MaxLength: 10})
	if err := r.Append(make([]int16, 3), audio.ParityEven, 0); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := r.Finalize(); !errors.Is(err, ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", err)
	}
}

func TestParseStride(t *testing.T) {
	for _, v := range []int{2, 4} {
		s, err := ParseStride(v)
		if err != nil || int(s) != v {
			t.Errorf("ParseStride(%d) = %v, %v", v, s, err)
		}
	}
	for _, v := range []int{0, 1, 3, 8} {
		if _, err := ParseStride(v); !errors.Is(err, ErrInvalidStride) {
			t.Errorf("ParseStride(%d): expected ErrInvalidStride, got %v", v, err)
		}
	}
}

func TestOutputIndexMatchesPlacement(t *testing.T) {
	tests := []struct {
		name     string
		stride   Stride
		parity   audio.Parity
		position int32
		want     int64
	}{
		{"quad even", StrideQuad, audio.ParityEven, 8, 8},
		{"quad odd", StrideQuad, audio.ParityOdd, 10, 10},
		{"quad snapped odd", StrideQuad, audio.ParityOdd, 9, 10},
		{"pair even", StridePair, audio.ParityEven, 8, 4},
		{"pair odd", StridePair, audio.ParityOdd, 10, 5},
		{"pair snapped odd", StridePair, audio.ParityOdd, 11, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{Stride: tt.stride})
			if got := r.OutputIndex(tt.position); got != tt.want {
				t.Fatalf("OutputIndex(%d) = %d, want %d", tt.position, got, tt.want)
			}
			if err := r.Append([]int16{1000}, tt.parity, tt.position); err != nil {
				t.Fatalf("Append: %v", err)
			}
			res, err := r.Finalize()
			if err != nil {
				t.Fatalf("Finalize: %v", err)
			}
			first := slices.Index(res.Samples, 1000)
			if res.Samples[tt.want] != 1000 || int64(first) > tt.want {
				t.Errorf("sample not at index %d: %v", tt.want, res.Samples)
			}
		})
	}
}

func TestStrideOutputRate(t *testing.T) {
	if got := StrideQuad.OutputRate(audio.RobotSampleRate); got != 44100 {
		t.Errorf("quad: expected 44100, got %d", got)
	}
	if got := StridePair.OutputRate(audio.RobotSampleRate); got != audio.RobotSampleRate {
		t.Errorf("pair: expected %d, got %d", audio.RobotSampleRate, got)
	}
}
