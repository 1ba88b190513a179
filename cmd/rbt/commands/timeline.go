// ABOUTME: timeline command
// ABOUTME: Writes the per-frame audio time CSV of a Robot file
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTimelineCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "timeline <input>",
		Short: "Write the frame to audio time mapping as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, err := root.load(ctx, args[0])
			if err != nil {
				return err
			}

			res, err := root.decode(ctx, in, root.sessionOptions())
			if err != nil {
				return err
			}

			if err := root.writeOutput(ctx, cmd.OutOrStdout(), output, res.Timeline.WriteCSV); err != nil {
				return fmt.Errorf("failed to write timeline: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or s3:// URI (default stdout)")
	return cmd
}
