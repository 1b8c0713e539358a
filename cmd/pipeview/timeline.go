package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"honnef.co/go/pipeview/compare"
	"honnef.co/go/pipeview/timeline"
)

type timelineOptions struct {
	root *rootOptions

	label         string
	maxRows       int
	ticksPerCycle uint64
	output        string
	format        string
}

func newTimelineCmd(root *rootOptions) *cobra.Command {
	opts := &timelineOptions{root: root}
	cmd := &cobra.Command{
		Use:   "timeline <trace>",
		Short: "Show the pipeline timeline of a single trace",
		Long: "Show the pipeline timeline of a single trace. The trace may be compressed with gzip, zstd or snappy; " +
			"use - to read from standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.label, "label", "l", "", "title of the timeline (defaults to the file name)")
	flags.IntVarP(&opts.maxRows, "max-rows", "n", 30, "maximum number of instructions (0 for all)")
	flags.Uint64Var(&opts.ticksPerCycle, "ticks-per-cycle", 1, "number of trace ticks per cycle")
	flags.StringVarP(&opts.output, "output", "o", "-", "output path; the format follows the extension (.json, .xlsx, text otherwise)")
	flags.StringVar(&opts.format, "format", "", "output format (text, json, xlsx), overriding the extension")
	return cmd
}

func (opts *timelineOptions) run(cmd *cobra.Command, path string) error {
	if opts.maxRows < 0 {
		return fmt.Errorf("invalid --max-rows %d", opts.maxRows)
	}
	src := manifestSource{Label: opts.label, Path: path}
	if src.Label == "" {
		src.Label = defaultLabel(path)
	}
	c, err := runComparison(opts.root.log, []manifestSource{src}, compare.Options{
		Timeline: timeline.Options{MaxRows: opts.maxRows, TicksPerCycle: opts.ticksPerCycle},
		Jobs:     1,
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.output, opts.format, c)
}
