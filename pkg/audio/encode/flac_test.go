// ABOUTME: Tests for the FLAC writer
// ABOUTME: Round trips mono and stereo audio through the FLAC reader
package encode

import (
	"bytes"
	"slices"
	"testing"

	"github.com/scummtools/robot-go/pkg/audio"
	"github.com/scummtools/robot-go/pkg/audio/decode"
)

func TestWriteFLACRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		frames   int
	}{
		{"mono multiple blocks", 1, FLACBlockSize*2 + 123},
		{"mono short", 1, 300},
		{"stereo", 2, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format := audio.Format{Codec: "pcm", SampleRate: audio.RobotSampleRate, Channels: tt.channels, BitDepth: 16}
			samples := make([]int16, tt.frames*tt.channels)
			for i := range samples {
				samples[i] = int16((i*7919)%65536 - 32768)
			}

			var buf bytes.Buffer
			if err := WriteFLAC(&buf, samples, format); err != nil {
				t.Fatalf("WriteFLAC() failed: %v", err)
			}

			back, got, err := decode.ReadFLAC(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("ReadFLAC() failed: %v", err)
			}
			if got.SampleRate != audio.RobotSampleRate || got.Channels != tt.channels {
				t.Errorf("unexpected format %+v", got)
			}
			if !slices.Equal(back, samples) {
				t.Errorf("decoded samples differ (got %d, want %d)", len(back), len(samples))
			}
		})
	}
}

func TestWriteFLACRejectsChannels(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFLAC(&buf, make([]int16, 6), audio.Format{SampleRate: 22050, Channels: 3})
	if err == nil {
		t.Error("expected error for 3 channels")
	}
}
