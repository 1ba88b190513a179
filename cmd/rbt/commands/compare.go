// ABOUTME: compare command
// ABOUTME: Scores both interpolation strides against a reference recording
package commands

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scummtools/robot-go/internal/reference"
	"github.com/scummtools/robot-go/pkg/audio/decode"
)

func newCompareCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <input> <reference>",
		Short: "Compare reconstructed audio against a reference recording",
		Long: `Decode the Robot file with both the pair and quad strides and compare
each result with a reference WAV, FLAC or MP3 file. The reference is
downmixed and resampled to each candidate's output rate first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, err := root.load(ctx, args[0])
			if err != nil {
				return err
			}
			refIn, err := root.load(ctx, args[1])
			if err != nil {
				return err
			}
			ref, err := reference.Load(bytes.NewReader(refIn.data), decode.CodecFromPath(refIn.name))
			if err != nil {
				return fmt.Errorf("failed to load reference: %w", err)
			}

			report, err := reference.Evaluate(ctx, in.data, ref, root.sessionOptions())
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STRIDE\tCOMPARED\tLENGTH DELTA\tMAX DIFF\tRMSE\tFIRST MISMATCH")
			for _, r := range report.Results {
				m := r.Metrics
				fmt.Fprintf(tw, "%v\t%d\t%d\t%d\t%.3f\t%d\n", r.Stride, m.Compared, m.LengthDelta, m.MaxAbsDiff, m.RMSE, m.FirstMismatch)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Best stride: %v\n", report.Best)
			return nil
		},
	}
}
