// ABOUTME: Robot header and primer parsing
// ABOUTME: Reads the fixed 60-byte header and the optional audio primer block
package robot

import (
	"bytes"
	"log"
	"time"

	"github.com/scummtools/robot-go/pkg/audio"
)

const (
	// Signature is the leading u16 of every Robot file
	Signature = 0x16

	// HeaderSize is the size of the fixed header
	HeaderSize = 60

	// RecordAlignment is the boundary the first frame record is aligned to
	RecordAlignment = 2048

	// CueCount is the number of entries in each cue table
	CueCount = 256

	primerHeaderSize   = 14
	zeroPrimerEvenSize = 19922
	zeroPrimerOddSize  = 21024
)

var solTag = []byte("SOL\x00")

// SupportedVersion reports whether a header version can be decoded
func SupportedVersion(v uint16) bool {
	return v == 5 || v == 6
}

// Header is the fixed Robot header
type Header struct {
	Version             uint16
	AudioBlockSize      uint16 // Bytes per frame audio packet, sub-header included
	PrimerZeroCompress  bool
	FrameCount          int
	PaletteSize         int
	PrimerReservedSize  int
	XRes                int16
	YRes                int16
	HasPalette          bool
	HasAudio            bool
	FrameRate           int16
	IsHiRes             bool
	MaxSkippablePackets int16
	MaxCelsPerFrame     int16
	MaxCelArea          [4]int32
}

// Duration returns the declared video length
func (h Header) Duration() time.Duration {
	if h.FrameRate <= 0 {
		return 0
	}
	return time.Duration(int64(h.FrameCount) * int64(time.Second) / int64(h.FrameRate))
}

// DeclaredSamples returns the audio sample count matching the declared
// video length at the Robot sample rate
func (h Header) DeclaredSamples() int {
	return h.DeclaredSamplesAt(audio.RobotSampleRate)
}

// DeclaredSamplesAt returns the sample count matching the declared video
// length at sampleRate
func (h Header) DeclaredSamplesAt(sampleRate int) int {
	if h.FrameRate <= 0 {
		return 0
	}
	return h.FrameCount * sampleRate / int(h.FrameRate)
}

// Primer is the audio preroll stored ahead of the frame records
type Primer struct {
	TotalSize       int32
	CompressionType int16
	Even            []byte
	Odd             []byte
	ZeroFilled      bool // Synthesised from the zero-compress flag
}

// Empty reports whether the primer carries no audio
func (p Primer) Empty() bool {
	return len(p.Even) == 0 && len(p.Odd) == 0
}

func parseHeader(c *cursor) (Header, error) {
	var h Header

	if sig := c.u16("signature"); c.err == nil && sig != Signature {
		return h, formatErrorf(0, ErrBadSignature, "signature %#x", sig)
	}
	if tag := c.take(4, "SOL tag"); c.err == nil && !bytes.Equal(tag, solTag) {
		return h, formatErrorf(2, ErrBadSignature, "missing SOL tag")
	}
	h.Version = c.u16("version")
	if c.err != nil {
		return h, c.err
	}
	if !SupportedVersion(h.Version) {
		return h, formatErrorf(6, ErrUnsupportedVersion, "version %d", h.Version)
	}

	h.AudioBlockSize = c.u16("audio block size")
	h.PrimerZeroCompress = c.i16("primer zero-compress flag") != 0
	c.skip(2, "reserved")
	h.FrameCount = int(c.u16("frame count"))
	h.PaletteSize = int(c.u16("palette size"))
	h.PrimerReservedSize = int(c.u16("primer reserved size"))
	h.XRes = c.i16("x resolution")
	h.YRes = c.i16("y resolution")
	h.HasPalette = c.u8("has palette") != 0
	h.HasAudio = c.u8("has audio") != 0
	c.skip(2, "reserved")
	h.FrameRate = c.i16("frame rate")
	h.IsHiRes = c.i16("hi-res flag") != 0
	h.MaxSkippablePackets = c.i16("max skippable packets")
	h.MaxCelsPerFrame = c.i16("max cels per frame")
	for i := range h.MaxCelArea {
		h.MaxCelArea[i] = c.i32("max cel area")
	}
	c.skip(8, "reserved")

	return h, c.err
}

func parsePrimer(c *cursor, h Header) (Primer, error) {
	var p Primer
	if !h.HasAudio {
		return p, nil
	}

	if h.PrimerReservedSize != 0 {
		start := c.pos
		p.TotalSize = c.i32("primer total size")
		p.CompressionType = c.i16("primer compression type")
		evenSize := c.i32("even primer size")
		oddSize := c.i32("odd primer size")
		if c.err != nil {
			return p, c.err
		}
		if p.CompressionType != 0 {
			return p, formatErrorf(int64(start+4), nil, "unknown primer compression type %d", p.CompressionType)
		}
		if evenSize < 0 || oddSize < 0 {
			return p, formatErrorf(int64(start+6), nil, "negative primer size even=%d odd=%d", evenSize, oddSize)
		}

		if int(evenSize)+int(oddSize) > h.PrimerReservedSize {
			log.Printf("Primer sizes even=%d odd=%d exceed reserved %d, ignoring primer",
				evenSize, oddSize, h.PrimerReservedSize)
		} else {
			p.Even = c.take(int(evenSize), "even primer")
			p.Odd = c.take(int(oddSize), "odd primer")
		}
		c.seek(start+h.PrimerReservedSize, "end of primer")
		return p, c.err
	}

	if h.PrimerZeroCompress {
		p.Even = make([]byte, zeroPrimerEvenSize)
		p.Odd = make([]byte, zeroPrimerOddSize)
		p.TotalSize = zeroPrimerEvenSize + zeroPrimerOddSize
		p.ZeroFilled = true
	}
	return p, nil
}
