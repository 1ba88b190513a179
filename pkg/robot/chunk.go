// ABOUTME: Typed chunks found inside a frame record
// ABOUTME: Lazily yields palette, video and audio chunks with bounds checks
package robot

import (
	"encoding/binary"
	"iter"

	"github.com/scummtools/robot-go/pkg/audio"
)

// AudioSubHeaderSize is the fixed header in front of each audio payload
const AudioSubHeaderSize = 8

// ChunkKind identifies the payload carried by a Chunk
type ChunkKind int

const (
	ChunkVideo ChunkKind = iota
	ChunkAudio
	ChunkPalette
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkVideo:
		return "video"
	case ChunkAudio:
		return "audio"
	case ChunkPalette:
		return "palette"
	default:
		return "unknown"
	}
}

// Chunk is one typed region of a frame record. Exactly one of Video,
// Audio or Palette is set, matching Kind.
type Chunk struct {
	Kind    ChunkKind
	Frame   int
	Offset  int64
	Size    int
	Video   *VideoChunk
	Audio   *AudioChunk
	Palette *Palette
}

// AudioChunk is the compressed audio packet of a frame record
type AudioChunk struct {
	StreamPosition int32
	CompressedSize int
	Data           []byte
}

// Parity returns the sub-stream the packet belongs to
func (a *AudioChunk) Parity() audio.Parity {
	return audio.ParityOf(a.StreamPosition)
}

// Chunks yields the chunks of rec in file order. The header palette is
// yielded first with record 0. Iteration stops after the first error,
// and a record not taken from this container yields only an error.
func (ct *Container) Chunks(rec FrameRecord) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		if err := ct.checkRecord(rec); err != nil {
			yield(Chunk{}, err)
			return
		}
		if rec.Index == 0 && ct.palette != nil {
			if !yield(Chunk{
				Kind:    ChunkPalette,
				Frame:   0,
				Size:    len(ct.palette.Raw),
				Palette: ct.palette,
			}, nil) {
				return
			}
		}

		if rec.VideoSize > 0 {
			video, err := parseVideo(ct.data[rec.Offset:rec.Offset+int64(rec.VideoSize)], rec.Offset)
			if err != nil {
				yield(Chunk{}, err)
				return
			}
			if !yield(Chunk{
				Kind:   ChunkVideo,
				Frame:  rec.Index,
				Offset: rec.Offset,
				Size:   rec.VideoSize,
				Video:  video,
			}, nil) {
				return
			}
		}

		if !ct.header.HasAudio {
			return
		}
		remaining := rec.PacketSize - rec.VideoSize
		if remaining == 0 {
			return
		}
		start := rec.Offset + int64(rec.VideoSize)
		if remaining < AudioSubHeaderSize {
			yield(Chunk{}, formatErrorf(start, ErrTruncated,
				"frame %d has %d bytes after video, audio sub-header needs %d", rec.Index, remaining, AudioSubHeaderSize))
			return
		}

		sub := ct.data[start : start+AudioSubHeaderSize]
		position := int32(binary.LittleEndian.Uint32(sub[0:4]))
		size := int(binary.LittleEndian.Uint16(sub[4:6]))
		payload := start + AudioSubHeaderSize
		if payload+int64(size) > rec.End() {
			yield(Chunk{}, formatErrorf(start+4, ErrChunkBounds,
				"frame %d audio declares %d bytes, record has %d", rec.Index, size, rec.End()-payload))
			return
		}

		yield(Chunk{
			Kind:   ChunkAudio,
			Frame:  rec.Index,
			Offset: start,
			Size:   AudioSubHeaderSize + size,
			Audio: &AudioChunk{
				StreamPosition: position,
				CompressedSize: size,
				Data:           ct.data[payload : payload+int64(size)],
			},
		}, nil)
	}
}

// AudioAt returns the audio chunk of a record, or nil when it has none
func (ct *Container) AudioAt(rec FrameRecord) (*AudioChunk, error) {
	for chunk, err := range ct.Chunks(rec) {
		if err != nil {
			return nil, err
		}
		if chunk.Kind == ChunkAudio {
			return chunk.Audio, nil
		}
	}
	return nil, nil
}
