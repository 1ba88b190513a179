// ABOUTME: SCI HunkPalette parsing for the Robot header palette
// ABOUTME: Decodes the single palette entry into RGB colors
package robot

import (
	"encoding/binary"
	"image/color"
	"log"
)

const (
	hunkPaletteHeaderSize   = 13
	hunkPaletteCountOffset  = 10
	paletteEntryHeaderSize  = 22
	paletteStartColorOffset = 10
	paletteNumColorsOffset  = 14
	paletteUsedOffset       = 16
	paletteSharedUsedOffset = 17
)

// Palette is the header palette. Robot files carry exactly one, which
// applies from frame 0 onward.
type Palette struct {
	Raw        []byte
	StartColor int
	Colors     []color.RGBA
	Used       bool
	SharedUsed bool
}

// parsePalette decodes a HunkPalette blob found at offset in the file
func parsePalette(raw []byte, offset int64) (*Palette, error) {
	p := &Palette{Raw: raw}
	if len(raw) == 0 {
		return p, nil
	}
	if len(raw) < hunkPaletteHeaderSize {
		return nil, formatErrorf(offset, ErrTruncated, "palette of %d bytes shorter than its header", len(raw))
	}

	count := int(raw[hunkPaletteCountOffset])
	if count == 0 {
		return p, nil
	}
	if count != 1 {
		log.Printf("Unexpected palette count %d, keeping raw palette only", count)
		return p, nil
	}

	entry := hunkPaletteHeaderSize + 2*count
	if entry+paletteEntryHeaderSize > len(raw) {
		return nil, formatErrorf(offset+int64(entry), ErrTruncated, "palette entry header past end of palette")
	}

	p.StartColor = int(raw[entry+paletteStartColorOffset])
	numColors := int(binary.LittleEndian.Uint16(raw[entry+paletteNumColorsOffset:]))
	p.Used = raw[entry+paletteUsedOffset] != 0
	p.SharedUsed = raw[entry+paletteSharedUsedOffset] != 0

	stride := 4
	if p.SharedUsed {
		stride = 3
	}
	data := entry + paletteEntryHeaderSize
	if data+numColors*stride > len(raw) {
		return nil, formatErrorf(offset+int64(data), ErrTruncated, "palette declares %d colors past end of palette", numColors)
	}
	if p.StartColor+numColors > 256 {
		numColors = 256 - p.StartColor
	}

	p.Colors = make([]color.RGBA, numColors)
	for i := range p.Colors {
		src := raw[data+i*stride:]
		if !p.SharedUsed {
			src = src[1:] // per-color used flag
		}
		p.Colors[i] = color.RGBA{R: src[0], G: src[1], B: src[2], A: 0xFF}
	}
	return p, nil
}

// Lookup returns the color at a palette index
func (p *Palette) Lookup(index int) (color.RGBA, bool) {
	i := index - p.StartColor
	if i < 0 || i >= len(p.Colors) {
		return color.RGBA{}, false
	}
	return p.Colors[i], true
}
