// ABOUTME: Tests for the WAV reader
// ABOUTME: Builds RIFF files by hand and checks parsing and error paths
package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func buildWAV(channels, rate, bits int, pcm []byte, extra ...[]byte) []byte {
	var fmtChunk bytes.Buffer
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(1))
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(channels))
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(rate))
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(rate*channels*bits/8))
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(bits))

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(fmtChunk.Len()))
	body.Write(fmtChunk.Bytes())
	for _, chunk := range extra {
		body.Write(chunk)
	}
	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(len(pcm)))
	body.Write(pcm)

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestReadWAV(t *testing.T) {
	pcm := []byte{0x10, 0x00, 0xF0, 0xFF, 0x00, 0x80}
	samples, format, err := ReadWAV(bytes.NewReader(buildWAV(1, 22050, 16, pcm)))
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}

	if format.SampleRate != 22050 || format.Channels != 1 || format.BitDepth != 16 {
		t.Errorf("unexpected format: %+v", format)
	}
	expected := []int16{16, -16, -32768}
	if len(samples) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(samples))
	}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], samples[i])
		}
	}
}

func TestReadAllWAV24Bit(t *testing.T) {
	// The low byte of each 24-bit sample is dropped
	pcm := []byte{0x00, 0x01, 0x02, 0x80, 0xFF, 0xFF, 0xAA, 0x00, 0x80}
	samples, format, err := ReadAll(bytes.NewReader(buildWAV(1, 44100, 24, pcm)), CodecFromPath("ref.wav"))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if format.SampleRate != 44100 || format.Channels != 1 || format.BitDepth != 16 {
		t.Errorf("unexpected format: %+v", format)
	}
	expected := []int16{0x0201, -1, -32768}
	if len(samples) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(samples))
	}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], samples[i])
		}
	}
}

func TestReadWAVSkipsUnknownChunks(t *testing.T) {
	// Odd-sized LIST chunk carries a pad byte
	list := []byte{'L', 'I', 'S', 'T', 3, 0, 0, 0, 'a', 'b', 'c', 0}
	samples, _, err := ReadWAV(bytes.NewReader(buildWAV(2, 44100, 16, []byte{1, 0, 2, 0}, list)))
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if len(samples) != 2 || samples[0] != 1 || samples[1] != 2 {
		t.Errorf("unexpected samples: %v", samples)
	}
}

func TestReadWAVErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not riff", []byte("RIFX0000WAVEfmt ")},
		{"missing data", buildWAV(1, 22050, 16, nil)[:36]},
		{"8-bit", buildWAV(1, 22050, 8, []byte{1, 2})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ReadWAV(bytes.NewReader(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	_, _, err := ReadWAV(bytes.NewReader([]byte("nope")))
	if !errors.Is(err, ErrNotWAV) {
		t.Errorf("expected ErrNotWAV, got %v", err)
	}
}

func TestCodecFromPath(t *testing.T) {
	tests := map[string]string{
		"ref.wav":   "wav",
		"REF.WAV":   "wav",
		"a/b.mp3":   "mp3",
		"clip.flac": "flac",
		"video.rbt": "",
		"no-ext":    "",
	}
	for path, want := range tests {
		if got := CodecFromPath(path); got != want {
			t.Errorf("CodecFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestReadAllUnsupported(t *testing.T) {
	if _, _, err := ReadAll(bytes.NewReader(nil), "ogg"); err == nil {
		t.Error("expected error for unsupported codec")
	}
}
