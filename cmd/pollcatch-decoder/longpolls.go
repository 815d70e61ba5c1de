package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arielb1/pollcatch/correlator"
	"github.com/arielb1/pollcatch/eventlog"
)

var (
	logPath    string
	stackDepth int
)

var longpollsCmd = &cobra.Command{
	Use:   "longpolls <sample-container> <min-duration>",
	Short: "Print long polls from a profiler sample container",
	Args:  cobra.ExactArgs(2),
	RunE:  runLongpolls,
}

func init() {
	longpollsCmd.Flags().StringVar(&logPath, "log", "", "pollcatch event log path (optional; samples with an appword resolve without it)")
	longpollsCmd.Flags().IntVar(&stackDepth, "stack-depth", 5, "number of leading stack frames to print")
	rootCmd.AddCommand(longpollsCmd)
}

func runLongpolls(cmd *cobra.Command, args []string) error {
	containerPath, minDurationArg := args[0], args[1]

	threshold, err := time.ParseDuration(minDurationArg)
	if err != nil {
		return fmt.Errorf("invalid min-duration %q: %w", minDurationArg, err)
	}

	idx := correlator.EmptyIndices()
	if logPath != "" {
		logFile, err := os.Open(logPath)
		if err != nil {
			return fmt.Errorf("opening event log: %w", err)
		}
		defer logFile.Close()

		idx, err = correlator.BuildIndices(eventlog.NewReader(logFile), nil)
		if err != nil {
			return fmt.Errorf("building interval index: %w", err)
		}
	}

	containerFile, err := os.Open(containerPath)
	if err != nil {
		return fmt.Errorf("opening sample container: %w", err)
	}
	defer containerFile.Close()

	src, err := correlator.NewJFRSource(containerFile)
	if err != nil {
		return fmt.Errorf("reading sample container: %w", err)
	}

	findings, err := correlator.Correlate(src, idx, correlator.Options{
		Threshold:  threshold,
		StackDepth: stackDepth,
	})
	if err != nil {
		return fmt.Errorf("correlating samples: %w", err)
	}

	return correlator.WriteReport(cmd.OutOrStdout(), findings)
}
