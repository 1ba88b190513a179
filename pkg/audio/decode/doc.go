// ABOUTME: Audio decoder package for Robot packets and reference files
// ABOUTME: Provides the DPCM16 packet decoder plus PCM, Opus, WAV, MP3 and FLAC readers
// Package decode turns encoded audio into int16 PCM.
//
// The heart of the package is DecodeDPCM16, the SOL delta decoder used by
// Robot audio packets: one output sample per input byte, clamped to the
// signed 16-bit range after every step.
//
// Packet decoders implement the Decoder interface:
//
//	dec, err := decode.NewDPCM(audio.Format{Codec: "dpcm16"}, true)
//	samples, err := dec.Decode(chunk.Data)
//
// Reference files used to validate reconstruction are read whole:
//
//	samples, format, err := decode.ReadAll(f, decode.CodecFromPath(path))
package decode
