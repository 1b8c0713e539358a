package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"honnef.co/go/pipeview/compare"
	"honnef.co/go/pipeview/trace"
)

// WriteText writes c as aligned plain-text tables, one per configuration. Control flow rows are marked with an
// asterisk and missing timestamps are shown as "-".
func WriteText(w io.Writer, c *compare.Comparison) error {
	pr := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)

	first := true
	for _, res := range c.Results.All() {
		if !first {
			fmt.Fprintln(tw)
		}
		first = false

		p := res.Panel()
		fmt.Fprintf(tw, "%s – %s\n", p.Title, p.Annotation)
		pr.Fprintf(tw, "%d instructions shown, %d control flow; %d lines, %d instructions, %d malformed, %d orphaned\n",
			p.Instructions, p.ControlFlow,
			res.Diagnostics.Lines, res.Diagnostics.Fetches, res.Diagnostics.Malformed, res.Diagnostics.Orphaned)

		fmt.Fprintf(tw, "\t%s\t\n", strings.Join(p.Columns[:], "\t"))
		for i, row := range p.Rows {
			label := row.Text
			if row.ControlFlow {
				label = "*" + label
			}
			fmt.Fprint(tw, label)
			for _, cell := range p.Matrix.Rows[i] {
				if v, ok := cell.Get(); ok {
					pr.Fprintf(tw, "\t%d", v)
				} else {
					fmt.Fprint(tw, "\t-")
				}
			}
			fmt.Fprint(tw, "\t\n")
		}

		var lat []string
		for _, s := range trace.Stages {
			if l, ok := res.Statistics.Latency[s].Get(); ok {
				lat = append(lat, pr.Sprintf("%s %d/%.1f/%d", s, l.Min, l.Mean, l.Max))
			}
		}
		if len(lat) > 0 {
			fmt.Fprintf(tw, "latency min/mean/max: %s\n", strings.Join(lat, ", "))
		}
	}

	if len(c.Unavailable) > 0 {
		if !first {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, "unavailable:")
		for _, u := range c.Unavailable {
			fmt.Fprintf(tw, "  %s\n", u.Error())
		}
	}
	return tw.Flush()
}
