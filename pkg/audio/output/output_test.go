// ABOUTME: Audio output tests
// ABOUTME: Verifies interface conformance, volume scaling and the null clock
package output

import (
	"slices"
	"testing"
	"time"
)

func TestImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
	var _ Output = (*Null)(nil)
	var _ VolumeControl = (*Oto)(nil)
}

func TestApplyVolume(t *testing.T) {
	samples := []int16{1000, -1000, 32767, -32768}

	tests := []struct {
		name     string
		volume   int
		muted    bool
		expected []int16
	}{
		{"full volume", 100, false, samples},
		{"half volume", 50, false, []int16{500, -500, 16383, -16384}},
		{"muted", 100, true, []int16{0, 0, 0, 0}},
		{"zero volume", 0, false, []int16{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyVolume(samples, tt.volume, tt.muted)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestOtoVolumeClamp(t *testing.T) {
	o := NewOto()
	o.SetVolume(150)
	if o.GetVolume() != 100 {
		t.Errorf("expected volume clamped to 100, got %d", o.GetVolume())
	}
	o.SetVolume(-5)
	if o.GetVolume() != 0 {
		t.Errorf("expected volume clamped to 0, got %d", o.GetVolume())
	}
	o.SetMuted(true)
	if !o.IsMuted() {
		t.Error("expected muted")
	}
	if err := o.Write([]int16{1}); err == nil {
		t.Error("expected error writing to unopened output")
	}
}

func TestNullPlayed(t *testing.T) {
	n := NewNull()
	if err := n.Write([]int16{1}); err == nil {
		t.Error("expected error before Open")
	}
	if err := n.Open(22050, 1); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := n.Write(make([]int16, 22050)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := n.Write(make([]int16, 11025)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := n.Played(); got != 1500*time.Millisecond {
		t.Errorf("expected 1.5s played, got %v", got)
	}
	n.Close()
	if n.Played() != 0 {
		t.Error("expected zero after close")
	}
}
