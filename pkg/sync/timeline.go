// ABOUTME: Static frame to audio-time timeline
// ABOUTME: Implements AudioClock and reads/writes the frame,audio_time_seconds CSV
package sync

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
)

// TimelineHeader is the CSV header row
var TimelineHeader = []string{"frame", "audio_time_seconds"}

// Timeline maps frame indices to the audio time of their packet
type Timeline struct {
	times map[int]float64
}

// NewTimeline creates an empty timeline
func NewTimeline() *Timeline {
	return &Timeline{times: make(map[int]float64)}
}

// Set records the audio time of a frame
func (t *Timeline) Set(frame int, seconds float64) {
	t.times[frame] = seconds
}

// AudioTime implements AudioClock
func (t *Timeline) AudioTime(frame int) (float64, bool) {
	s, ok := t.times[frame]
	return s, ok
}

// Len returns the number of frames with an audio time
func (t *Timeline) Len() int {
	return len(t.times)
}

// Frames returns the frames with an audio time in ascending order
func (t *Timeline) Frames() []int {
	return slices.Sorted(maps.Keys(t.times))
}

// WriteCSV writes the timeline in frame order
func (t *Timeline) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TimelineHeader); err != nil {
		return err
	}
	for _, f := range t.Frames() {
		row := []string{strconv.Itoa(f), strconv.FormatFloat(t.times[f], 'f', 6, 64)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTimelineCSV parses a timeline CSV. Rows that do not parse are
// skipped; a missing header column is an error.
func ReadTimelineCSV(r io.Reader) (*Timeline, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("timeline csv: missing header")
		}
		return nil, fmt.Errorf("timeline csv: %w", err)
	}
	frameCol, timeCol := -1, -1
	for i, name := range header {
		switch name {
		case TimelineHeader[0]:
			frameCol = i
		case TimelineHeader[1]:
			timeCol = i
		}
	}
	if frameCol < 0 || timeCol < 0 {
		return nil, fmt.Errorf("timeline csv: header %v lacks %v", header, TimelineHeader)
	}

	t := NewTimeline()
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("timeline csv: %w", err)
		}
		if frameCol >= len(row) || timeCol >= len(row) {
			continue
		}
		frame, ferr := strconv.Atoi(row[frameCol])
		seconds, serr := strconv.ParseFloat(row[timeCol], 64)
		if ferr != nil || serr != nil {
			continue
		}
		t.Set(frame, seconds)
	}
	return t, nil
}
