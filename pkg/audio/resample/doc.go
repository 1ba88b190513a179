// ABOUTME: Audio resampling package
// ABOUTME: Converts int16 audio between sample rates
// Package resample provides audio sample rate conversion.
//
// Reconstructed Robot audio is 44100 or 22050 Hz; Opus streaming needs
// 48000 Hz and reference recordings arrive at whatever rate they were
// captured at.
//
// Example:
//
//	r, err := resample.New(22050, 48000, 1)
//	out, err := r.Process(chunk)
//
//	full, err := resample.Convert(samples, 44100, 22050, 1)
package resample
