// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests 16-bit and 24-bit PCM decoding
package decode

import (
	"testing"

	"github.com/scummtools/robot-go/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	decoder, err := NewPCM(audio.RobotFormat())
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestPCMDecode16Bit(t *testing.T) {
	decoder, err := NewPCM(audio.RobotFormat())
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0x0100 = 256, 0xFFFE = -2
	input := []byte{0x00, 0x01, 0xFE, 0xFF}
	output, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(output) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(output))
	}
	if output[0] != 256 {
		t.Errorf("expected first sample 256, got %d", output[0])
	}
	if output[1] != -2 {
		t.Errorf("expected second sample -2, got %d", output[1])
	}
}

func TestPCMDecode24Bit(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   24,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0x020100 keeps 0x0201; 0xFFFF80 keeps 0xFFFF = -1
	input := []byte{0x00, 0x01, 0x02, 0x80, 0xFF, 0xFF}
	output, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(output) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(output))
	}
	if output[0] != 0x0201 {
		t.Errorf("expected first sample %d, got %d", 0x0201, output[0])
	}
	if output[1] != -1 {
		t.Errorf("expected second sample -1, got %d", output[1])
	}
}

func TestNewPCM_InvalidCodec(t *testing.T) {
	format := audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}

	decoder, err := NewPCM(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}
}

func TestNewPCM_InvalidBitDepth(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 22050, Channels: 1, BitDepth: 8}

	if _, err := NewPCM(format); err == nil {
		t.Fatal("expected error for 8-bit PCM")
	}
}
