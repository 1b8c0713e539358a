package compare

import (
	"fmt"

	"honnef.co/go/pipeview/timeline"
	"honnef.co/go/pipeview/trace"
)

// Panel is the read-only view of one configuration, as handed to renderers. Renderers decide on colors and layout;
// ControlFlow rows are meant to be presented distinctly.
type Panel struct {
	Title        string
	Annotation   string
	Matrix       *timeline.Matrix
	Rows         []RowLabel
	Columns      [trace.NumStages]string
	Instructions int
	ControlFlow  int
}

type RowLabel struct {
	Text        string
	ControlFlow bool
}

// Columns are the column labels shared by all panels.
var Columns = func() [trace.NumStages]string {
	var out [trace.NumStages]string
	for i, s := range trace.Stages {
		out[i] = s.Title()
	}
	return out
}()

// Panel returns the view of a result. The panel refers to the result's matrix, which must not be modified.
func (res *Result) Panel() Panel {
	p := Panel{
		Title:        res.Label,
		Annotation:   "IPC: " + timeline.FormatIPC(res.Statistics.IPC),
		Matrix:       &res.Matrix,
		Rows:         make([]RowLabel, res.Table.Len()),
		Columns:      Columns,
		Instructions: res.Table.Len(),
		ControlFlow:  res.Table.ControlFlow(),
	}
	for i := range res.Table.Instructions {
		inst := &res.Table.Instructions[i]
		p.Rows[i] = RowLabel{
			Text:        fmt.Sprintf("T%d %s", inst.Thread, inst.Mnemonic),
			ControlFlow: inst.ControlFlow,
		}
	}
	return p
}

// Panels returns the views of all results, in declaration order.
func (c *Comparison) Panels() []Panel {
	out := make([]Panel, 0, c.Results.Len())
	for _, res := range c.Results.All() {
		out = append(out, res.Panel())
	}
	return out
}
