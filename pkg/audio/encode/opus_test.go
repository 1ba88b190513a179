// ABOUTME: Unit tests for Opus encoder
// ABOUTME: Tests frame validation and a decode round trip
package encode

import (
	"strings"
	"testing"

	"github.com/scummtools/robot-go/pkg/audio"
	"github.com/scummtools/robot-go/pkg/audio/decode"
)

func opusFormat(channels int) audio.Format {
	return audio.Format{Codec: "opus", SampleRate: 48000, Channels: channels, BitDepth: 16}
}

func TestNewOpus(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{name: "valid Opus 48kHz mono", format: opusFormat(1)},
		{name: "valid Opus 48kHz stereo", format: opusFormat(2)},
		{
			name:        "invalid codec",
			format:      audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 1, BitDepth: 16},
			wantErr:     true,
			errContains: "invalid codec",
		},
		{
			name:        "unsupported rate",
			format:      audio.Format{Codec: "opus", SampleRate: 22050, Channels: 1, BitDepth: 16},
			wantErr:     true,
			errContains: "opus encoder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewOpus(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewOpus() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewOpus() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpus() unexpected error = %v", err)
			}
			encoder.Close()
		})
	}
}

func TestOpusEncoder_EncodeRoundTrip(t *testing.T) {
	encoder, err := NewOpus(opusFormat(1))
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	frameSize := encoder.(*OpusEncoder).FrameSize()
	if frameSize != 960 {
		t.Fatalf("expected 960 samples per 20ms frame, got %d", frameSize)
	}

	samples := make([]int16, frameSize)
	for i := range samples {
		samples[i] = int16((i % 100) * 200)
	}

	packet, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(packet) == 0 || len(packet) > maxOpusPacket {
		t.Fatalf("unexpected packet size %d", len(packet))
	}

	decoder, err := decode.NewOpus(opusFormat(1))
	if err != nil {
		t.Fatalf("decode.NewOpus() failed: %v", err)
	}
	defer decoder.Close()

	out, err := decoder.Decode(packet)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(out) != frameSize {
		t.Errorf("expected %d decoded samples, got %d", frameSize, len(out))
	}
}

func TestOpusEncoder_RejectsPartialFrame(t *testing.T) {
	encoder, err := NewOpus(opusFormat(1))
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	if _, err := encoder.Encode(make([]int16, 100)); err == nil {
		t.Error("expected error for partial frame")
	}
}
