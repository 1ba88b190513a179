// ABOUTME: Synthetic Robot container builder for tests
// ABOUTME: Produces valid or deliberately broken RBT byte streams
package robottest

import (
	"bytes"
	"encoding/binary"
)

// Frame describes one frame record of a synthetic file
type Frame struct {
	Video []byte // Raw video chunk, empty for none

	HasAudio       bool
	Position       int32
	Audio          []byte
	DeclaredSize   int // Overrides the declared audio size when non-zero
	TrailingBytes  int // Extra padding after the audio payload
	RawAfterVideo  []byte
	OverridePacket int // Overrides packet size in the table when non-zero
}

// Builder assembles an RBT file
type Builder struct {
	Version        uint16
	FrameRate      int16
	XRes, YRes     int16
	AudioBlockSize uint16

	HasAudio      bool
	ZeroPrimer    bool
	PrimerEven    []byte
	PrimerOdd     []byte
	PrimerReserve int // Reserved primer size, defaults to header + data
	PrimerComp    int16

	Palette   []byte
	CueTimes  map[int]int32
	CueValues map[int]uint16

	Frames []Frame
}

// New returns a version 5 builder at 10 fps with audio enabled
func New() *Builder {
	return &Builder{
		Version:        5,
		FrameRate:      10,
		XRes:           640,
		YRes:           480,
		AudioBlockSize: 2221,
		HasAudio:       true,
	}
}

// AddFrame appends a frame record
func (b *Builder) AddFrame(f Frame) *Builder {
	b.Frames = append(b.Frames, f)
	return b
}

// Build serialises the file
func (b *Builder) Build() []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	w16 := func(v uint16) { _ = binary.Write(&buf, le, v) }
	w32 := func(v uint32) { _ = binary.Write(&buf, le, v) }

	hasPrimer := b.HasAudio && (len(b.PrimerEven) > 0 || len(b.PrimerOdd) > 0 || b.PrimerReserve > 0)
	reserve := 0
	if hasPrimer {
		reserve = b.PrimerReserve
		if reserve == 0 {
			reserve = 14 + len(b.PrimerEven) + len(b.PrimerOdd)
		}
	}

	w16(0x16)
	buf.WriteString("SOL\x00")
	w16(b.Version)
	w16(b.AudioBlockSize)
	if b.ZeroPrimer {
		w16(1)
	} else {
		w16(0)
	}
	w16(0)
	w16(uint16(len(b.Frames)))
	w16(uint16(len(b.Palette)))
	w16(uint16(reserve))
	w16(uint16(b.XRes))
	w16(uint16(b.YRes))
	buf.WriteByte(boolByte(len(b.Palette) > 0))
	buf.WriteByte(boolByte(b.HasAudio))
	w16(0)
	w16(uint16(b.FrameRate))
	w16(0)
	w16(0)
	w16(10)
	for i := 0; i < 4; i++ {
		w32(0)
	}
	buf.Write(make([]byte, 8))

	if hasPrimer {
		start := buf.Len()
		w32(uint32(len(b.PrimerEven) + len(b.PrimerOdd)))
		w16(uint16(b.PrimerComp))
		w32(uint32(len(b.PrimerEven)))
		w32(uint32(len(b.PrimerOdd)))
		buf.Write(b.PrimerEven)
		buf.Write(b.PrimerOdd)
		if pad := start + reserve - buf.Len(); pad > 0 {
			buf.Write(make([]byte, pad))
		}
	}

	buf.Write(b.Palette)

	records := make([][]byte, len(b.Frames))
	for i, f := range b.Frames {
		records[i] = f.record()
	}

	for _, f := range b.Frames {
		writeSize(&buf, b.Version, len(f.Video))
	}
	for i, f := range b.Frames {
		size := len(records[i])
		if f.OverridePacket != 0 {
			size = f.OverridePacket
		}
		writeSize(&buf, b.Version, size)
	}

	for i := 0; i < 256; i++ {
		w32(uint32(b.CueTimes[i]))
	}
	for i := 0; i < 256; i++ {
		w16(b.CueValues[i])
	}

	if rem := buf.Len() % 2048; rem != 0 {
		buf.Write(make([]byte, 2048-rem))
	}
	for _, r := range records {
		buf.Write(r)
	}
	return buf.Bytes()
}

func (f Frame) record() []byte {
	var rec bytes.Buffer
	rec.Write(f.Video)
	if f.RawAfterVideo != nil {
		rec.Write(f.RawAfterVideo)
		return rec.Bytes()
	}
	if !f.HasAudio {
		return rec.Bytes()
	}
	declared := len(f.Audio)
	if f.DeclaredSize != 0 {
		declared = f.DeclaredSize
	}
	_ = binary.Write(&rec, binary.LittleEndian, uint32(f.Position))
	_ = binary.Write(&rec, binary.LittleEndian, uint16(declared))
	rec.Write([]byte{0, 0})
	rec.Write(f.Audio)
	rec.Write(make([]byte, f.TrailingBytes))
	return rec.Bytes()
}

func writeSize(buf *bytes.Buffer, version uint16, size int) {
	if version == 5 {
		_ = binary.Write(buf, binary.LittleEndian, uint16(size))
		return
	}
	_ = binary.Write(buf, binary.LittleEndian, uint32(size))
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// Video builds a video chunk with the given cels, each carrying one
// data chunk of payload bytes
func Video(cels ...Cel) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&buf, le, uint16(len(cels)))
	for _, c := range cels {
		h := make([]byte, 22)
		h[1] = c.Scale
		le.PutUint16(h[2:], c.Width)
		le.PutUint16(h[4:], c.Height)
		le.PutUint16(h[10:], uint16(c.X))
		le.PutUint16(h[12:], uint16(c.Y))
		le.PutUint16(h[14:], uint16(10+len(c.Payload)))
		le.PutUint16(h[16:], 1)
		buf.Write(h)
		dh := make([]byte, 10)
		le.PutUint32(dh[0:], uint32(len(c.Payload)))
		le.PutUint32(dh[4:], uint32(len(c.Payload)))
		buf.Write(dh)
		buf.Write(c.Payload)
	}
	return buf.Bytes()
}

// Cel describes one cel for Video
type Cel struct {
	Scale         uint8
	Width, Height uint16
	X, Y          int16
	Payload       []byte
}

// HunkPalette builds a single-entry palette blob with shared-used RGB colors
func HunkPalette(start int, colors [][3]byte) []byte {
	raw := make([]byte, 13+2+22)
	raw[10] = 1
	entry := 15
	raw[entry+10] = byte(start)
	binary.LittleEndian.PutUint16(raw[entry+14:], uint16(len(colors)))
	raw[entry+16] = 1
	raw[entry+17] = 1
	for _, c := range colors {
		raw = append(raw, c[0], c[1], c[2])
	}
	return raw
}

// Packet returns n compressed zero-delta bytes
func Packet(n int) []byte {
	return make([]byte, n)
}

// Ramp returns n compressed bytes that each add the given step code
func Ramp(n int, code byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = code
	}
	return b
}
