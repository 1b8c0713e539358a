package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"honnef.co/go/pipeview/compare"
	"honnef.co/go/pipeview/export"
	"honnef.co/go/pipeview/timeline"
)

var compareExamples = []string{
	"  Compare two configurations:        $ pipeview compare 'With BP=trace_bp_on.out' 'No BP=trace_bp_off.out'",
	"  Use a manifest, write JSON:        $ pipeview compare -m configs.yaml -o comparison.json",
	"  Spreadsheet of the first 50 rows:  $ pipeview compare -n 50 -o comparison.xlsx a=a.out.gz b=b.out.zst",
}

type compareOptions struct {
	root *rootOptions

	manifest      string
	maxRows       int
	ticksPerCycle uint64
	jobs          int
	output        string
	format        string
}

func newCompareCmd(root *rootOptions) *cobra.Command {
	opts := &compareOptions{root: root}
	cmd := &cobra.Command{
		Use:     "compare [label=path...]",
		Short:   "Compare pipeline timelines of several traces",
		Example: strings.Join(compareExamples, "\n"),
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.manifest, "manifest", "m", "", "YAML manifest listing the sources")
	flags.IntVarP(&opts.maxRows, "max-rows", "n", 20, "maximum number of instructions per configuration (0 for all)")
	flags.Uint64Var(&opts.ticksPerCycle, "ticks-per-cycle", 1, "number of trace ticks per cycle")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "number of traces to analyze concurrently (0 for GOMAXPROCS)")
	flags.StringVarP(&opts.output, "output", "o", "-", "output path; the format follows the extension (.json, .xlsx, text otherwise)")
	flags.StringVar(&opts.format, "format", "", "output format (text, json, xlsx), overriding the extension")
	return cmd
}

func (opts *compareOptions) run(cmd *cobra.Command, args []string) error {
	var sources []manifestSource
	if opts.manifest != "" {
		m, err := loadManifest(opts.manifest)
		if err != nil {
			return err
		}
		opts.applyManifest(cmd.Flags(), m)
		sources = append(sources, m.Sources...)
	}
	for _, arg := range args {
		src, err := parseSourceArg(arg)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return errors.New("no trace sources given; pass label=path arguments or --manifest")
	}
	if err := checkStdin(sources); err != nil {
		return err
	}
	if opts.maxRows < 0 {
		return fmt.Errorf("invalid --max-rows %d", opts.maxRows)
	}

	c, err := runComparison(opts.root.log, sources, compare.Options{
		Timeline: timeline.Options{MaxRows: opts.maxRows, TicksPerCycle: opts.ticksPerCycle},
		Jobs:     opts.jobs,
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.output, opts.format, c)
}

// applyManifest copies settings from the manifest, unless they were given as flags.
func (opts *compareOptions) applyManifest(flags *pflag.FlagSet, m *manifest) {
	if m.MaxRows != nil && !flags.Changed("max-rows") {
		opts.maxRows = *m.MaxRows
	}
	if m.TicksPerCycle != nil && !flags.Changed("ticks-per-cycle") {
		opts.ticksPerCycle = *m.TicksPerCycle
	}
	if m.Jobs != nil && !flags.Changed("jobs") {
		opts.jobs = *m.Jobs
	}
	if m.Output != "" && !flags.Changed("output") {
		opts.output = m.Output
	}
}

// checkStdin rejects more than one source reading from standard input, which can only be consumed once.
func checkStdin(sources []manifestSource) error {
	first := ""
	for _, src := range sources {
		if src.Path != "-" {
			continue
		}
		if first != "" {
			return fmt.Errorf("sources %q and %q both read from standard input", first, src.Label)
		}
		first = src.Label
	}
	return nil
}

// runComparison runs the comparison and logs its outcome. Only the unavailability of all sources is an error.
func runComparison(log *logrus.Logger, sources []manifestSource, opts compare.Options) (*compare.Comparison, error) {
	configs := make([]compare.Config, len(sources))
	for i, src := range sources {
		configs[i] = src.config()
	}
	opts.Log = log

	c, err := compare.Run(configs, opts)
	if err != nil {
		if errors.Is(err, compare.ErrNoSources) {
			return nil, &exitError{code: 2, err: err}
		}
		return nil, err
	}

	for _, res := range c.Results.All() {
		log.WithFields(logrus.Fields{
			"label":        res.Label,
			"instructions": res.Diagnostics.Fetches,
			"rows":         res.Table.Len(),
			"dropped":      res.Diagnostics.Dropped(),
			"ipc":          timeline.FormatIPC(res.Statistics.IPC),
		}).Info("analyzed configuration")
	}
	if len(c.Unavailable) > 0 {
		labels := make([]string, len(c.Unavailable))
		for i, u := range c.Unavailable {
			labels[i] = u.Label
		}
		log.Warnf("%d of %d sources unavailable: %s", len(c.Unavailable), len(sources), strings.Join(labels, ", "))
	}
	return c, nil
}

func writeOutput(cmd *cobra.Command, path, format string, c *compare.Comparison) error {
	f := export.FormatFor(path)
	if format != "" {
		var err error
		f, err = export.ParseFormat(format)
		if err != nil {
			return err
		}
	}
	if path == "" || path == "-" {
		return export.Write(cmd.OutOrStdout(), c, f)
	}
	return export.WriteFile(path, c, f)
}
