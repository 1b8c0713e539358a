// Package compare analyzes several traces, one per processor configuration, and lines up their timelines and
// statistics for side-by-side presentation.
package compare

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"honnef.co/go/pipeview/container"
	"honnef.co/go/pipeview/mysync"
	"honnef.co/go/pipeview/timeline"
	"honnef.co/go/pipeview/trace"
)

// ErrNoSources is returned by Run when not a single source could be analyzed.
var ErrNoSources = errors.New("no trace source is available")

// Config names one trace source.
type Config struct {
	Label  string
	Source trace.Source
}

type Options struct {
	Timeline timeline.Options
	// Jobs is the maximum number of sources analyzed concurrently. Values below one mean GOMAXPROCS.
	Jobs int
	// Log receives progress and warnings. It defaults to a logger that discards everything.
	Log logrus.FieldLogger
}

// Result is the analysis of one configuration.
type Result struct {
	Label       string
	Source      string
	Table       timeline.Table
	Matrix      timeline.Matrix
	Statistics  timeline.Statistics
	Diagnostics trace.Diagnostics
}

// Unavailable describes a source that couldn't be analyzed.
type Unavailable struct {
	Label  string
	Source string
	Err    error
}

func (u Unavailable) Error() string {
	return fmt.Sprintf("%s (%s): %s", u.Label, u.Source, u.Err)
}

func (u Unavailable) Unwrap() error { return u.Err }

// Comparison holds the results of all available sources, keyed by label, in the order the sources were declared.
type Comparison struct {
	Results     container.OrderedMap[string, *Result]
	Unavailable []Unavailable
}

// Analyze runs the whole pipeline for a single source: it reconstructs the instructions, builds the timeline and
// computes its statistics. The returned error is non-nil only if the source couldn't be opened or read.
func Analyze(label string, src trace.Source, opts timeline.Options) (*Result, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	insts, diag, err := trace.ReadInstructions(rc)
	if err != nil {
		return nil, err
	}
	tbl, m := timeline.Build(insts, opts)
	return &Result{
		Label:       label,
		Source:      src.String(),
		Table:       tbl,
		Matrix:      m,
		Statistics:  timeline.ComputeStatistics(&m),
		Diagnostics: diag,
	}, nil
}

// Run analyzes all sources concurrently and waits for all of them. Sources that can't be opened or read are recorded
// in Comparison.Unavailable and don't affect the other sources. If no source is available, Run returns the comparison
// together with ErrNoSources. Invalid configurations, such as duplicate labels, are reported before any source is
// opened.
func Run(configs []Config, opts Options) (*Comparison, error) {
	if err := validate(configs); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	jobs := opts.Jobs
	if jobs < 1 {
		jobs = runtime.GOMAXPROCS(0)
	}

	type failure struct {
		idx int
		Unavailable
	}
	results := make([]*Result, len(configs))
	failures := mysync.NewMutex[[]failure](nil)

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, cfg := range configs {
		g.Go(func() error {
			entry := log.WithFields(logrus.Fields{
				"label":  cfg.Label,
				"source": cfg.Source.String(),
			})
			res, err := Analyze(cfg.Label, cfg.Source, opts.Timeline)
			if err != nil {
				entry.WithError(err).Warn("trace source unavailable")
				failures.Do(func(fs *[]failure) {
					*fs = append(*fs, failure{i, Unavailable{cfg.Label, cfg.Source.String(), err}})
				})
				// Failures are isolated to their source.
				return nil
			}
			entry.WithFields(logrus.Fields{
				"instructions": res.Diagnostics.Fetches,
				"malformed":    res.Diagnostics.Malformed,
				"orphaned":     res.Diagnostics.Orphaned,
				"rows":         res.Table.Len(),
				"ipc":          timeline.FormatIPC(res.Statistics.IPC),
			}).Debug("analyzed trace")
			results[i] = res
			return nil
		})
	}
	g.Wait()

	c := &Comparison{}
	for _, res := range results {
		if res != nil {
			c.Results.Set(res.Label, res)
		}
	}
	fs, u := failures.Lock()
	slices.SortFunc(*fs, func(a, b failure) int { return a.idx - b.idx })
	for _, f := range *fs {
		c.Unavailable = append(c.Unavailable, f.Unavailable)
	}
	u.Unlock()

	if c.Results.Len() == 0 {
		return c, ErrNoSources
	}
	return c, nil
}

func validate(configs []Config) error {
	seen := container.Set[string]{}
	for i, cfg := range configs {
		if cfg.Label == "" {
			return fmt.Errorf("source %d has an empty label", i)
		}
		if cfg.Source == nil {
			return fmt.Errorf("source %q has no trace", cfg.Label)
		}
		if seen.Has(cfg.Label) {
			return fmt.Errorf("duplicate label %q", cfg.Label)
		}
		seen.Add(cfg.Label)
	}
	return nil
}
