// ABOUTME: Audio encoder package for encoding PCM to various formats
// ABOUTME: Provides Encoder interface and PCM, Opus, WAV and FLAC writers
// Package encode provides audio encoders for reconstructed Robot audio.
//
// Supports: PCM (16-bit and 24-bit), Opus for streaming, and whole-file
// WAV and FLAC export.
//
// All encoders accept int16 samples.
//
// Example:
//
//	encoder, err := encode.NewPCM(format)
//	data, err := encoder.Encode(samples)
//
//	err = encode.WriteWAV(w, samples, audio.RobotFormat())
package encode
