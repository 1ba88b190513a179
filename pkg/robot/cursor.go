// ABOUTME: Little-endian byte cursor with sticky errors
// ABOUTME: Used by the header and table parsers to walk the container once
package robot

import "encoding/binary"

// cursor reads little-endian values from a byte slice. After the first
// short read every accessor returns zero and err holds a FormatError.
type cursor struct {
	data []byte
	pos  int
	err  error
}

func (c *cursor) take(n int, what string) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.data) {
		c.err = formatErrorf(int64(c.pos), ErrTruncated, "need %d bytes for %s, have %d", n, what, len(c.data)-c.pos)
		return nil
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *cursor) skip(n int, what string) {
	c.take(n, what)
}

func (c *cursor) seek(pos int, what string) {
	if c.err != nil {
		return
	}
	if pos < 0 || pos > len(c.data) {
		c.err = formatErrorf(int64(c.pos), ErrTruncated, "cannot seek to %d for %s", pos, what)
		return
	}
	c.pos = pos
}

func (c *cursor) u8(what string) uint8 {
	b := c.take(1, what)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u16(what string) uint16 {
	b := c.take(2, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) i16(what string) int16 {
	return int16(c.u16(what))
}

func (c *cursor) u32(what string) uint32 {
	b := c.take(4, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) i32(what string) int32 {
	return int32(c.u32(what))
}
