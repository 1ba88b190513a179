// ABOUTME: WAV file writer
// ABOUTME: Writes int16 samples as a canonical RIFF/WAVE PCM file
package encode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/scummtools/robot-go/pkg/audio"
)

const wavHeaderSize = 44

// WriteWAV writes a 16-bit PCM WAV file
func WriteWAV(w io.Writer, samples []int16, format audio.Format) error {
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return fmt.Errorf("invalid wav format: %d Hz, %d channels", format.SampleRate, format.Channels)
	}

	dataSize := uint32(len(samples) * 2)
	blockAlign := uint16(format.Channels * 2)

	bw := bufio.NewWriter(w)
	header := make([]byte, wavHeaderSize)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], 36+dataSize)
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:], uint16(format.Channels))
	binary.LittleEndian.PutUint32(header[24:], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(format.SampleRate)*uint32(blockAlign))
	binary.LittleEndian.PutUint16(header[32:], blockAlign)
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], dataSize)

	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("failed to write wav header: %w", err)
	}
	if _, err := bw.Write(PCM16(samples)); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	return bw.Flush()
}
