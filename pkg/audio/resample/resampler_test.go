// ABOUTME: Tests for the resampler wrapper
// ABOUTME: Covers passthrough, output length and signal preservation
package resample

import (
	"math"
	"testing"
)

func sine(n, rate int, freq float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(10000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
		ch      int
		wantErr bool
	}{
		{"upsample", 22050, 48000, 1, false},
		{"downsample", 44100, 22050, 2, false},
		{"passthrough", 22050, 22050, 1, false},
		{"zero rate", 0, 48000, 1, true},
		{"zero channels", 22050, 48000, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.in, tt.out, tt.ch)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConvertLength(t *testing.T) {
	tests := []struct {
		name     string
		in, out  int
		channels int
		frames   int
		expected int
	}{
		{"22050 to 48000", 22050, 48000, 1, 22050, 48000},
		{"44100 to 22050 stereo", 44100, 22050, 2, 4410, 2205 * 2},
		{"passthrough", 22050, 22050, 1, 1000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := sine(tt.frames*tt.channels, tt.in, 440)
			out, err := Convert(input, tt.in, tt.out, tt.channels)
			if err != nil {
				t.Fatalf("Convert() failed: %v", err)
			}
			if len(out) != tt.expected {
				t.Errorf("expected %d samples, got %d", tt.expected, len(out))
			}
		})
	}
}

func TestConvertPreservesLevel(t *testing.T) {
	input := sine(22050, 22050, 440)
	out, err := Convert(input, 22050, 48000, 1)
	if err != nil {
		t.Fatalf("Convert() failed: %v", err)
	}

	var peak int16
	for _, s := range out[4800 : len(out)-4800] {
		peak = max(peak, s)
	}
	if peak < 9000 || peak > 11000 {
		t.Errorf("expected peak near 10000, got %d", peak)
	}
}

func TestToInt16Clamps(t *testing.T) {
	out := toInt16([]float64{2, -2, 0, 0.5})
	if out[0] != 32767 || out[1] != -32768 || out[2] != 0 || out[3] != 16383 {
		t.Errorf("unexpected conversion %v", out)
	}
}
