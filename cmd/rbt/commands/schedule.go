// ABOUTME: schedule command
// ABOUTME: Runs the sync controller offline and writes an ffmpeg concat list
package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scummtools/robot-go/internal/storage"
	"github.com/scummtools/robot-go/pkg/sync"
)

type scheduleOptions struct {
	pattern       string
	output        string
	timeline      string
	checkInterval float64
}

// scheduleReport is the JSON form of the schedule command
type scheduleReport struct {
	Frames  int                  `json:"frames"`
	Total   float64              `json:"total"`
	Regimes map[string]int       `json:"regimes"`
	Entries []sync.ScheduleEntry `json:"entries"`
}

func newScheduleCmd(root *rootOptions) *cobra.Command {
	opts := &scheduleOptions{}
	cmd := &cobra.Command{
		Use:   "schedule <input>",
		Short: "Compute frame durations that follow the audio",
		Long: `Play the Robot file through the sync controller without a device,
using the decoded timeline (or a timeline CSV) as the audio clock, and
write the presented frames as an ffmpeg concat list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, err := root.load(ctx, args[0])
			if err != nil {
				return err
			}
			ct, err := in.container()
			if err != nil {
				return err
			}
			header := ct.Header()

			var (
				clock    *sync.Timeline
				duration float64
			)
			if opts.timeline != "" {
				clock, err = root.readTimeline(ctx, opts.timeline)
				if err != nil {
					return err
				}
				duration = header.Duration().Seconds()
			} else {
				res, err := root.decode(ctx, in, root.sessionOptions())
				if err != nil {
					return err
				}
				clock = res.Timeline
				duration = res.Duration()
			}

			interval := opts.checkInterval
			if !cmd.Flags().Changed("check-interval") {
				interval = root.cfg.Sync.CheckInterval
			}
			ctrl, err := sync.NewController(sync.Config{
				NormalRate:    float64(header.FrameRate),
				FrameCount:    header.FrameCount,
				AudioDuration: duration,
				CheckInterval: interval,
			}, clock)
			if err != nil {
				return err
			}
			sched := sync.BuildSchedule(ctrl)

			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), newScheduleReport(sched))
			}

			err = root.writeOutput(ctx, cmd.OutOrStdout(), opts.output, func(w io.Writer) error {
				return sched.WriteConcat(w, opts.pattern)
			})
			if err != nil {
				return fmt.Errorf("failed to write schedule: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Scheduled %d frames over %.3fs\n", len(sched.Entries), sched.Total())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.pattern, "pattern", "frame_%05d.png", "frame image path pattern")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or s3:// URI (default stdout)")
	cmd.Flags().StringVar(&opts.timeline, "timeline", "", "timeline CSV to use as the audio clock instead of decoding")
	cmd.Flags().Float64Var(&opts.checkInterval, "check-interval", sync.DefaultCheckInterval, "seconds of video between sync checks")
	return cmd
}

func (o *rootOptions) readTimeline(ctx context.Context, ref string) (*sync.Timeline, error) {
	loc, err := storage.ParseLocation(ref, o.cfg.S3())
	if err != nil {
		return nil, err
	}
	data, err := storage.ReadFile(ctx, loc.Store, loc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timeline: %w", err)
	}
	return sync.ReadTimelineCSV(bytes.NewReader(data))
}

func newScheduleReport(s *sync.Schedule) *scheduleReport {
	r := &scheduleReport{
		Frames:  len(s.Entries),
		Total:   s.Total(),
		Regimes: make(map[string]int),
		Entries: s.Entries,
	}
	for _, e := range s.Entries {
		r.Regimes[e.Regime.String()]++
	}
	return r
}
