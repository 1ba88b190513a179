// ABOUTME: Package robot parses Sierra Robot (.RBT) containers
// ABOUTME: Exposes the header, primer, palette, cues and per-frame chunks
// Package robot parses the Sierra SCI32 Robot container.
//
// Open walks the header and record tables once. Chunks then lazily yields
// the video, audio and palette chunks of each frame record:
//
//	ct, err := robot.Open(data)
//	for rec := range ct.Records() {
//		for chunk, err := range ct.Chunks(rec) {
//			...
//		}
//	}
//
// All malformed input surfaces as *FormatError, which wraps one of the
// sentinel errors so callers can use errors.Is.
package robot
