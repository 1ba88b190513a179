// ABOUTME: WAV file reader
// ABOUTME: Parses RIFF/WAVE PCM files into int16 samples
package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/scummtools/robot-go/pkg/audio"
)

// ErrNotWAV is returned when the input lacks a RIFF/WAVE signature
var ErrNotWAV = errors.New("not a RIFF/WAVE file")

// ReadWAV reads a 16-bit or 24-bit PCM WAV file
func ReadWAV(r io.Reader) ([]int16, audio.Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to read wav: %w", err)
	}
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, audio.Format{}, ErrNotWAV
	}

	var (
		format  audio.Format
		haveFmt bool
		pcm     []byte
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		body := pos + 8
		if body+size > len(data) {
			// Writers that never patched the size leave it short or huge
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, audio.Format{}, fmt.Errorf("wav fmt chunk too small: %d", size)
			}
			if tag := binary.LittleEndian.Uint16(data[body:]); tag != 1 && tag != 0xFFFE {
				return nil, audio.Format{}, fmt.Errorf("unsupported wav format tag: %#x", tag)
			}
			format = audio.Format{
				Codec:      "pcm",
				Channels:   int(binary.LittleEndian.Uint16(data[body+2:])),
				SampleRate: int(binary.LittleEndian.Uint32(data[body+4:])),
				BitDepth:   int(binary.LittleEndian.Uint16(data[body+14:])),
			}
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		pos = body + size + size&1
	}

	if !haveFmt {
		return nil, audio.Format{}, fmt.Errorf("wav missing fmt chunk")
	}
	if pcm == nil {
		return nil, audio.Format{}, fmt.Errorf("wav missing data chunk")
	}

	dec, err := NewPCM(format)
	if err != nil {
		return nil, audio.Format{}, err
	}
	samples, err := dec.Decode(pcm)
	if err != nil {
		return nil, audio.Format{}, err
	}
	format.BitDepth = 16
	return samples, format, nil
}
