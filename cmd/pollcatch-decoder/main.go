// Command pollcatch-decoder finds long polls by joining a profiler
// sample container against a pollcatch event log.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "pollcatch-decoder",
	Short: "Find slow polls from a profiler sample container",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
