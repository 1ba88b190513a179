// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface with oto and discarding implementations
// Package output provides audio playback interfaces.
//
// Oto plays through the system audio device. Null discards audio and is
// used for headless runs and tests. Both report the played position,
// which the live player uses as its audio clock.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(22050, 1)
//	err = out.Write(samples)
package output
