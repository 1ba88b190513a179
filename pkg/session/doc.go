// ABOUTME: Package session runs a complete Robot audio decode
// ABOUTME: Ties the container parser, DPCM16 decoder and reconstructor together
// Package session decodes the audio of a Robot file in one pass and builds
// the frame to audio-time timeline used for playback sync.
package session
