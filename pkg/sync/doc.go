// ABOUTME: Playback synchronisation package
// ABOUTME: Adjusts the video frame rate to follow the Robot audio clock
// Package sync drives Robot video playback against the audio clock.
//
// A Controller is ticked once per presented frame. Every CheckInterval
// seconds of video time it compares the current frame with the audio
// position reported by an AudioClock and switches between the Normal, Slow
// and Fast regimes, repositioning the video when the regime changes.
//
// Example:
//
//	ctrl, err := sync.NewController(sync.Config{
//		NormalRate:    10,
//		FrameCount:    90,
//		AudioDuration: 9.0,
//	}, timeline)
//	for {
//		tick := ctrl.Tick()
//		show(tick.Frame, tick.Duration)
//		if tick.Done {
//			break
//		}
//	}
package sync
