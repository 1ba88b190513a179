// ABOUTME: info command
// ABOUTME: Prints the header, primer, palette, cues and frame records of a Robot file
package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scummtools/robot-go/pkg/robot"
)

type infoOptions struct {
	records bool
	cues    bool
}

// infoReport is the JSON form of the info command
type infoReport struct {
	File      string       `json:"file"`
	Header    robot.Header `json:"header"`
	Duration  float64      `json:"duration"`
	Primer    primerInfo   `json:"primer"`
	Palette   *paletteInfo `json:"palette,omitempty"`
	Cues      []robot.Cue  `json:"cues,omitempty"`
	Records   []recordInfo `json:"records,omitempty"`
	AudioSize int          `json:"audio_packets"`
}

type primerInfo struct {
	TotalSize  int32 `json:"total_size"`
	Even       int   `json:"even"`
	Odd        int   `json:"odd"`
	ZeroFilled bool  `json:"zero_filled"`
}

type paletteInfo struct {
	StartColor int `json:"start_color"`
	Colors     int `json:"colors"`
}

type recordInfo struct {
	Frame      int    `json:"frame"`
	Offset     int64  `json:"offset"`
	VideoSize  int    `json:"video_size"`
	PacketSize int    `json:"packet_size"`
	Position   *int32 `json:"audio_position,omitempty"`
}

func newInfoCmd(root *rootOptions) *cobra.Command {
	opts := &infoOptions{}
	cmd := &cobra.Command{
		Use:   "info <input>",
		Short: "Show the structure of a Robot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := root.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ct, err := in.container()
			if err != nil {
				return err
			}
			report, err := buildInfo(in.name, ct, opts)
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}
			return printInfo(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&opts.records, "records", false, "list every frame record")
	cmd.Flags().BoolVar(&opts.cues, "cues", false, "list the cue table")
	return cmd
}

func buildInfo(name string, ct *robot.Container, opts *infoOptions) (*infoReport, error) {
	h := ct.Header()
	p := ct.Primer()
	report := &infoReport{
		File:     name,
		Header:   h,
		Duration: h.Duration().Seconds(),
		Primer: primerInfo{
			TotalSize:  p.TotalSize,
			Even:       len(p.Even),
			Odd:        len(p.Odd),
			ZeroFilled: p.ZeroFilled,
		},
	}
	if pal, ok := ct.Palette(); ok {
		report.Palette = &paletteInfo{StartColor: pal.StartColor, Colors: len(pal.Colors)}
	}
	if opts.cues {
		report.Cues = ct.Cues()
	}

	for rec := range ct.Records() {
		chunk, err := ct.AudioAt(rec)
		if err != nil {
			return nil, err
		}
		if chunk != nil {
			report.AudioSize++
		}
		if !opts.records {
			continue
		}
		info := recordInfo{
			Frame:      rec.Index,
			Offset:     rec.Offset,
			VideoSize:  rec.VideoSize,
			PacketSize: rec.PacketSize,
		}
		if chunk != nil {
			pos := chunk.StreamPosition
			info.Position = &pos
		}
		report.Records = append(report.Records, info)
	}
	return report, nil
}

func printInfo(w io.Writer, r *infoReport) error {
	h := r.Header
	fmt.Fprintf(w, "File:        %s\n", r.File)
	fmt.Fprintf(w, "Version:     %d\n", h.Version)
	fmt.Fprintf(w, "Frames:      %d at %d fps (%.3fs)\n", h.FrameCount, h.FrameRate, r.Duration)
	fmt.Fprintf(w, "Resolution:  %dx%d (hi-res: %v)\n", h.XRes, h.YRes, h.IsHiRes)
	fmt.Fprintf(w, "Audio:       %v, block %d bytes, %d packets\n", h.HasAudio, h.AudioBlockSize, r.AudioSize)
	fmt.Fprintf(w, "Primer:      %d bytes (even %d, odd %d, zero-filled %v)\n",
		r.Primer.TotalSize, r.Primer.Even, r.Primer.Odd, r.Primer.ZeroFilled)
	if r.Palette != nil {
		fmt.Fprintf(w, "Palette:     %d colors from %d\n", r.Palette.Colors, r.Palette.StartColor)
	} else {
		fmt.Fprintf(w, "Palette:     none\n")
	}
	fmt.Fprintf(w, "Max cels:    %d per frame\n", h.MaxCelsPerFrame)

	if len(r.Cues) > 0 {
		fmt.Fprintf(w, "\nCues:\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tTIME\tVALUE")
		for _, c := range r.Cues {
			fmt.Fprintf(tw, "%d\t%d\t%d\n", c.Index, c.Time, c.Value)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(r.Records) > 0 {
		fmt.Fprintf(w, "\nRecords:\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FRAME\tOFFSET\tVIDEO\tPACKET\tAUDIO POS")
		for _, rec := range r.Records {
			pos := "-"
			if rec.Position != nil {
				pos = fmt.Sprint(*rec.Position)
			}
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\n", rec.Frame, rec.Offset, rec.VideoSize, rec.PacketSize, pos)
		}
		return tw.Flush()
	}
	return nil
}
