// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer, Parity and sample helpers
// Package audio provides the audio types shared by the Robot decode pipeline.
//
// This package defines:
//   - Format: describes a PCM stream (codec, sample rate, channels, bit depth)
//   - Buffer: decoded PCM positioned on the stream timeline
//   - Parity: the EVEN/ODD sub-stream tag derived from a packet's stream position
//
// Robot audio is recorded as 16-bit mono at 22050 Hz. The reconstructed
// rate depends on the lattice stride:
//
//	format := audio.RobotFormat()
//	format.SampleRate = reconstruct.StrideQuad.OutputRate(format.SampleRate)
//	parity := audio.ParityOf(chunk.StreamPosition)
package audio
