// ABOUTME: Live audio clock package
// ABOUTME: Turns the output device's played position into a smooth audio time
// Package sync provides the live audio clock used during playback.
//
// The output device reports its position in coarse steps. AudioClock
// predicts between steps with a drift estimate and implements the
// frame lookup used by the playback sync controller.
//
// Example:
//
//	clock := sync.NewAudioClock(out)
//	seconds, ok := clock.AudioTime(frame)
package sync
