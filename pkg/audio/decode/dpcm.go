// ABOUTME: DPCM16 delta decoder for Robot audio packets
// ABOUTME: Expands one byte per sample through a fixed companding step table
package decode

import (
	"fmt"

	"github.com/scummtools/robot-go/pkg/audio"
)

// RunwaySamples is the number of leading samples in every frame packet that
// only move the predictor into place and are never played.
const RunwaySamples = 8

// dpcm16Steps is the SOL DPCM16 step table. Index with the low 7 bits of a code byte.
var dpcm16Steps = [128]int16{
	0x0000, 0x0008, 0x0010, 0x0020, 0x0030, 0x0040, 0x0050, 0x0060, 0x0070, 0x0080,
	0x0090, 0x00A0, 0x00B0, 0x00C0, 0x00D0, 0x00E0, 0x00F0, 0x0100, 0x0110, 0x0120,
	0x0130, 0x0140, 0x0150, 0x0160, 0x0170, 0x0180, 0x0190, 0x01A0, 0x01B0, 0x01C0,
	0x01D0, 0x01E0, 0x01F0, 0x0200, 0x0208, 0x0210, 0x0218, 0x0220, 0x0228, 0x0230,
	0x0238, 0x0240, 0x0248, 0x0250, 0x0258, 0x0260, 0x0268, 0x0270, 0x0278, 0x0280,
	0x0288, 0x0290, 0x0298, 0x02A0, 0x02A8, 0x02B0, 0x02B8, 0x02C0, 0x02C8, 0x02D0,
	0x02D8, 0x02E0, 0x02E8, 0x02F0, 0x02F8, 0x0300, 0x0308, 0x0310, 0x0318, 0x0320,
	0x0328, 0x0330, 0x0338, 0x0340, 0x0348, 0x0350, 0x0358, 0x0360, 0x0368, 0x0370,
	0x0378, 0x0380, 0x0388, 0x0390, 0x0398, 0x03A0, 0x03A8, 0x03B0, 0x03B8, 0x03C0,
	0x03C8, 0x03D0, 0x03D8, 0x03E0, 0x03E8, 0x03F0, 0x03F8, 0x0400, 0x0440, 0x0480,
	0x04C0, 0x0500, 0x0540, 0x0580, 0x05C0, 0x0600, 0x0640, 0x0680, 0x06C0, 0x0700,
	0x0740, 0x0780, 0x07C0, 0x0800, 0x0900, 0x0A00, 0x0B00, 0x0C00, 0x0D00, 0x0E00,
	0x0F00, 0x1000, 0x1400, 0x1800, 0x1C00, 0x2000, 0x3000, 0x4000,
}

// DPCM16Step returns the step table entry for a code's low 7 bits
func DPCM16Step(code byte) int16 {
	return dpcm16Steps[code&0x7F]
}

// DecodeDPCM16 expands compressed bytes starting from predictor.
// It returns one sample per input byte and the final predictor value.
func DecodeDPCM16(data []byte, predictor int16) ([]int16, int16) {
	out := make([]int16, len(data))
	p := int32(predictor)
	for i, code := range data {
		step := int32(dpcm16Steps[code&0x7F])
		if code&0x80 != 0 {
			p -= step
		} else {
			p += step
		}
		p = int32(audio.ClampInt16(p))
		out[i] = int16(p)
	}
	return out, int16(p)
}

// StripRunway drops the predictor runway from a decoded frame packet
func StripRunway(samples []int16) []int16 {
	if len(samples) <= RunwaySamples {
		return samples[:0]
	}
	return samples[RunwaySamples:]
}

// DPCMDecoder decodes Robot audio packets. Every packet starts from a zero
// predictor; nothing carries over between packets.
type DPCMDecoder struct {
	dropRunway bool
	decoded    int64
}

// NewDPCM creates a DPCM16 decoder. With dropRunway set, Decode returns
// packet samples with the runway prefix removed.
func NewDPCM(format audio.Format, dropRunway bool) (*DPCMDecoder, error) {
	if format.Codec != "dpcm16" {
		return nil, fmt.Errorf("invalid codec for DPCM decoder: %s", format.Codec)
	}
	return &DPCMDecoder{dropRunway: dropRunway}, nil
}

// Decode converts one compressed packet to samples
func (d *DPCMDecoder) Decode(data []byte) ([]int16, error) {
	samples, _ := DecodeDPCM16(data, 0)
	if d.dropRunway {
		samples = StripRunway(samples)
	}
	d.decoded += int64(len(samples))
	return samples, nil
}

// Decoded returns how many samples this decoder has produced
func (d *DPCMDecoder) Decoded() int64 {
	return d.decoded
}

// Close releases resources
func (d *DPCMDecoder) Close() error {
	return nil
}
