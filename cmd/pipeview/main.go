// Command pipeview reconstructs per-instruction pipeline timelines from O3 pipeline view traces and compares them
// across processor configurations.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel  string
	logFormat string

	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{log: logrus.New()}
	cmd := &cobra.Command{
		Use:           "pipeview",
		Short:         "Reconstruct and compare instruction pipeline timelines",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogging(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	cmd.AddCommand(newCompareCmd(opts), newTimelineCmd(opts), newVersionCmd())
	return cmd
}

func (opts *rootOptions) setupLogging(cmd *cobra.Command) error {
	lvl, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	opts.log.SetLevel(lvl)
	opts.log.SetOutput(cmd.ErrOrStderr())
	switch opts.logFormat {
	case "text":
		opts.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		opts.log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", opts.logFormat)
	}
	return nil
}

// exitError carries a specific exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pipeview:", err)
		var eerr *exitError
		if errors.As(err, &eerr) {
			os.Exit(eerr.code)
		}
		os.Exit(1)
	}
}
