// ABOUTME: Offline frame schedule generation
// ABOUTME: Runs the controller to completion and writes an ffmpeg concat list
package sync

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ScheduleEntry is one presented frame
type ScheduleEntry struct {
	Frame    int
	Duration float64
	Regime   Regime
}

// Schedule is the full presentation order of a playback run
type Schedule struct {
	Entries []ScheduleEntry
}

// Total returns the summed presentation time
func (s *Schedule) Total() float64 {
	var total float64
	for _, e := range s.Entries {
		total += e.Duration
	}
	return total
}

// BuildSchedule ticks the controller until it is done
func BuildSchedule(c *Controller) *Schedule {
	s := &Schedule{}
	for {
		tick := c.Tick()
		s.Entries = append(s.Entries, ScheduleEntry{Frame: tick.Frame, Duration: tick.Duration, Regime: tick.Regime})
		if tick.Done {
			return s
		}
	}
}

// WriteConcat writes the schedule as an ffmpeg concat list. pattern is a
// printf pattern taking the frame index, such as "frames/%05d.png". The
// last frame is repeated so ffmpeg honours its duration.
func (s *Schedule) WriteConcat(w io.Writer, pattern string) error {
	bw := bufio.NewWriter(w)
	for _, e := range s.Entries {
		fmt.Fprintf(bw, "file '%s'\n", quote(fmt.Sprintf(pattern, e.Frame)))
		fmt.Fprintf(bw, "duration %.6f\n", e.Duration)
	}
	if n := len(s.Entries); n > 0 {
		fmt.Fprintf(bw, "file '%s'\n", quote(fmt.Sprintf(pattern, s.Entries[n-1].Frame)))
	}
	return bw.Flush()
}

func quote(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}
