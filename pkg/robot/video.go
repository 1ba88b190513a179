// ABOUTME: Video chunk metadata parsing
// ABOUTME: Reads the screen item count and cel headers without decoding pixels
package robot

import (
	"encoding/binary"
	"log"
)

const (
	// MaxScreenItems is the largest screen item count whose cels are parsed
	MaxScreenItems = 10

	celHeaderSize       = 22
	celDataHeaderSize   = 10
	celVerticalScaleOff = 1
	celWidthOff         = 2
	celHeightOff        = 4
	celXOff             = 10
	celYOff             = 12
	celDataSizeOff      = 14
	celNumChunksOff     = 16
)

// VideoChunk is the metadata of a frame's video data
type VideoChunk struct {
	Data            []byte
	ScreenItemCount int
	Cels            []Cel
}

// Cel is one screen item header
type Cel struct {
	VerticalScale uint8
	Width         uint16
	Height        uint16
	X             int16
	Y             int16
	DataSize      uint16
	DataChunks    []CelDataChunk
}

// CelDataChunk is one compressed fragment of a cel
type CelDataChunk struct {
	CompressedSize   uint32
	DecompressedSize uint32
	CompressionType  uint16
	Data             []byte
}

func parseVideo(data []byte, offset int64) (*VideoChunk, error) {
	v := &VideoChunk{Data: data}
	if len(data) < 2 {
		return nil, formatErrorf(offset, ErrTruncated, "video chunk of %d bytes has no screen item count", len(data))
	}
	v.ScreenItemCount = int(binary.LittleEndian.Uint16(data))
	if v.ScreenItemCount > MaxScreenItems {
		log.Printf("Video chunk at %d has %d screen items, skipping cels", offset, v.ScreenItemCount)
		return v, nil
	}

	pos := 2
	for i := 0; i < v.ScreenItemCount; i++ {
		if pos+celHeaderSize > len(data) {
			return nil, formatErrorf(offset+int64(pos), ErrChunkBounds, "cel %d header past end of video chunk", i)
		}
		h := data[pos : pos+celHeaderSize]
		cel := Cel{
			VerticalScale: h[celVerticalScaleOff],
			Width:         binary.LittleEndian.Uint16(h[celWidthOff:]),
			Height:        binary.LittleEndian.Uint16(h[celHeightOff:]),
			X:             int16(binary.LittleEndian.Uint16(h[celXOff:])),
			Y:             int16(binary.LittleEndian.Uint16(h[celYOff:])),
			DataSize:      binary.LittleEndian.Uint16(h[celDataSizeOff:]),
		}
		numChunks := int(int16(binary.LittleEndian.Uint16(h[celNumChunksOff:])))
		pos += celHeaderSize

		for j := 0; j < numChunks; j++ {
			if pos+celDataHeaderSize > len(data) {
				return nil, formatErrorf(offset+int64(pos), ErrChunkBounds, "cel %d data chunk %d header past end of video chunk", i, j)
			}
			dc := CelDataChunk{
				CompressedSize:   binary.LittleEndian.Uint32(data[pos:]),
				DecompressedSize: binary.LittleEndian.Uint32(data[pos+4:]),
				CompressionType:  binary.LittleEndian.Uint16(data[pos+8:]),
			}
			pos += celDataHeaderSize
			if int64(pos)+int64(dc.CompressedSize) > int64(len(data)) {
				return nil, formatErrorf(offset+int64(pos), ErrChunkBounds,
					"cel %d data chunk %d declares %d bytes past end of video chunk", i, j, dc.CompressedSize)
			}
			dc.Data = data[pos : pos+int(dc.CompressedSize)]
			pos += int(dc.CompressedSize)
			cel.DataChunks = append(cel.DataChunks, dc)
		}
		v.Cels = append(v.Cels, cel)
	}
	return v, nil
}
