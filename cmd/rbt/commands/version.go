// ABOUTME: version command
// ABOUTME: Prints the tool version
package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/scummtools/robot-go/internal/version"
)

func newVersionCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"product": version.Product,
					"version": version.Version,
					"go":      runtime.Version(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", version.String(), runtime.Version())
			return nil
		},
	}
}
