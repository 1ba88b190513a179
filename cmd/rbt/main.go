// ABOUTME: Entry point for the rbt tool
// ABOUTME: Runs the command tree and maps errors to the exit status
package main

import (
	"fmt"
	"os"

	"github.com/scummtools/robot-go/cmd/rbt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
