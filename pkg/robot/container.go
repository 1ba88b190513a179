// ABOUTME: Robot container parser
// ABOUTME: Walks the header, size tables and cue tables once to locate every frame record
package robot

import (
	"fmt"
	"io"
	"iter"
)

// FrameRecord locates one frame's packet in the file
type FrameRecord struct {
	Index      int
	Offset     int64 // Absolute offset of the record
	VideoSize  int   // Bytes of video chunk at the start of the record
	PacketSize int   // Total record size, sub-chunks included
}

// End returns the offset one past the record
func (r FrameRecord) End() int64 {
	return r.Offset + int64(r.PacketSize)
}

// Cue is one non-empty entry of the cue tables
type Cue struct {
	Index int
	Time  int32
	Value uint16
}

// Container is a parsed Robot file. It keeps a reference to the input
// bytes; chunk payloads are sub-slices of it.
type Container struct {
	data      []byte
	header    Header
	primer    Primer
	palette   *Palette
	cueTimes  [CueCount]int32
	cueValues [CueCount]uint16
	records   []FrameRecord
}

// Load reads all of r and parses it
func Load(r io.Reader) (*Container, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read robot data: %w", err)
	}
	return Open(data)
}

// Open parses a Robot file held in memory
func Open(data []byte) (*Container, error) {
	c := &cursor{data: data}

	header, err := parseHeader(c)
	if err != nil {
		return nil, err
	}

	primer, err := parsePrimer(c, header)
	if err != nil {
		return nil, err
	}

	ct := &Container{
		data:   data,
		header: header,
		primer: primer,
	}

	paletteOffset := int64(c.pos)
	rawPalette := c.take(header.PaletteSize, "palette")
	if c.err != nil {
		return nil, c.err
	}
	if header.HasPalette {
		ct.palette, err = parsePalette(rawPalette, paletteOffset)
		if err != nil {
			return nil, err
		}
	}

	videoSizes := readSizeTable(c, header, "video size table")
	packetSizes := readSizeTable(c, header, "packet size table")
	for i := range ct.cueTimes {
		ct.cueTimes[i] = c.i32("cue time")
	}
	for i := range ct.cueValues {
		ct.cueValues[i] = c.u16("cue value")
	}
	if c.err != nil {
		return nil, c.err
	}

	pos := int64(alignUp(c.pos, RecordAlignment))
	ct.records = make([]FrameRecord, header.FrameCount)
	for i := range ct.records {
		rec := FrameRecord{
			Index:      i,
			Offset:     pos,
			VideoSize:  videoSizes[i],
			PacketSize: packetSizes[i],
		}
		if rec.VideoSize > rec.PacketSize {
			return nil, formatErrorf(rec.Offset, ErrChunkBounds,
				"frame %d video size %d exceeds packet size %d", i, rec.VideoSize, rec.PacketSize)
		}
		if rec.End() > int64(len(data)) {
			return nil, formatErrorf(rec.Offset, ErrTruncated,
				"frame %d record of %d bytes runs past end of file (%d bytes)", i, rec.PacketSize, len(data))
		}
		ct.records[i] = rec
		pos = rec.End()
	}

	return ct, nil
}

func readSizeTable(c *cursor, h Header, what string) []int {
	sizes := make([]int, h.FrameCount)
	for i := range sizes {
		if h.Version == 5 {
			sizes[i] = int(c.u16(what))
		} else {
			sizes[i] = int(c.u32(what))
		}
	}
	return sizes
}

func alignUp(n, align int) int {
	if rem := n % align; rem != 0 {
		return n + align - rem
	}
	return n
}

// Header returns the parsed header
func (ct *Container) Header() Header {
	return ct.header
}

// Primer returns the audio primer, empty when the file has none
func (ct *Container) Primer() Primer {
	return ct.primer
}

// Palette returns the header palette if the file has one
func (ct *Container) Palette() (*Palette, bool) {
	return ct.palette, ct.palette != nil
}

// Cues returns the cue table entries that carry a time or value
func (ct *Container) Cues() []Cue {
	var cues []Cue
	for i := 0; i < CueCount; i++ {
		if ct.cueTimes[i] == 0 && ct.cueValues[i] == 0 {
			continue
		}
		cues = append(cues, Cue{Index: i, Time: ct.cueTimes[i], Value: ct.cueValues[i]})
	}
	return cues
}

// FrameCount returns the number of frame records
func (ct *Container) FrameCount() int {
	return len(ct.records)
}

// RecordAt returns the record of frame index
func (ct *Container) RecordAt(index int) (FrameRecord, error) {
	if index < 0 || index >= len(ct.records) {
		return FrameRecord{}, &RangeError{Index: index, Count: len(ct.records)}
	}
	return ct.records[index], nil
}

// Records iterates the frame records in presentation order
func (ct *Container) Records() iter.Seq[FrameRecord] {
	return func(yield func(FrameRecord) bool) {
		for _, rec := range ct.records {
			if !yield(rec) {
				return
			}
		}
	}
}

// Bytes returns the raw bytes of a record
func (ct *Container) Bytes(rec FrameRecord) ([]byte, error) {
	if err := ct.checkRecord(rec); err != nil {
		return nil, err
	}
	return ct.data[rec.Offset:rec.End()], nil
}

// checkRecord rejects records that do not match the parsed record table
func (ct *Container) checkRecord(rec FrameRecord) error {
	if rec.Index < 0 || rec.Index >= len(ct.records) {
		return &RangeError{Index: rec.Index, Count: len(ct.records)}
	}
	if rec != ct.records[rec.Index] {
		return formatErrorf(rec.Offset, ErrForeignRecord, "frame %d record %+v", rec.Index, rec)
	}
	return nil
}
