// ABOUTME: extract command
// ABOUTME: Reconstructs the audio of a Robot file and writes WAV, FLAC or raw PCM
package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scummtools/robot-go/pkg/audio/encode"
	"github.com/scummtools/robot-go/pkg/session"
)

type extractOptions struct {
	output   string
	format   string
	noPrimer bool
	noPad    bool
	timeline string
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Reconstruct the audio track",
		Long: `Decode every audio packet, interleave the even and odd channels and
write the mono result. The quad stride produces 44100 Hz, the pair
stride 22050 Hz.

The output format follows the -o extension unless --format is given.
Without -o, raw PCM is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := extractFormat(opts.format, opts.output)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			in, err := root.load(ctx, args[0])
			if err != nil {
				return err
			}

			sopts := root.sessionOptions()
			sopts.IncludePrimer = !opts.noPrimer
			sopts.PadToVideo = !opts.noPad
			res, err := root.decode(ctx, in, sopts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = root.writeOutput(ctx, out, opts.output, func(w io.Writer) error {
				return writeAudio(w, format, res)
			})
			if err != nil {
				return fmt.Errorf("failed to write audio: %w", err)
			}

			if opts.timeline != "" {
				err := root.writeOutput(ctx, out, opts.timeline, res.Timeline.WriteCSV)
				if err != nil {
					return fmt.Errorf("failed to write timeline: %w", err)
				}
			}

			if opts.output != "" && opts.output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s: %d samples (%.3fs, stride %v)\n",
					opts.output, len(res.Samples), res.Duration(), res.Stride)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or s3:// URI (default stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "wav, flac or pcm (default from the output extension)")
	cmd.Flags().BoolVar(&opts.noPrimer, "no-primer", false, "leave the header primer out of the stream")
	cmd.Flags().BoolVar(&opts.noPad, "no-pad", false, "keep the decoded length instead of the video length")
	cmd.Flags().StringVar(&opts.timeline, "timeline", "", "also write the frame timeline CSV")
	return cmd
}

// extractFormat resolves the audio format from the flag or the file name
func extractFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".wav":
			format = "wav"
		case ".flac":
			format = "flac"
		default:
			format = "pcm"
		}
	}
	switch format {
	case "wav", "flac", "pcm":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

func writeAudio(w io.Writer, format string, res *session.Result) error {
	switch format {
	case "wav":
		return encode.WriteWAV(w, res.Samples, res.Format)
	case "flac":
		return encode.WriteFLAC(w, res.Samples, res.Format)
	default:
		_, err := w.Write(encode.PCM16(res.Samples))
		return err
	}
}
