// Package timeline turns reconstructed instructions into a stage-by-instruction timestamp matrix and computes
// throughput and latency statistics from it.
package timeline

import (
	"cmp"

	"golang.org/x/exp/slices"
	"honnef.co/go/pipeview/trace"
)

// Instructions is an indexable collection of instructions. Both *mem.BucketSlice[trace.Instruction], as returned by
// trace.ReadInstructions, and Slice implement it.
type Instructions interface {
	Get(idx int) trace.Instruction
	Ptr(idx int) *trace.Instruction
	Len() int
}

// Slice adapts a plain slice to Instructions.
type Slice []trace.Instruction

func (s Slice) Get(idx int) trace.Instruction  { return s[idx] }
func (s Slice) Ptr(idx int) *trace.Instruction { return &s[idx] }
func (s Slice) Len() int                       { return len(s) }

type Options struct {
	// MaxRows limits the table to the first MaxRows instructions in fetch order. Zero means no limit.
	MaxRows int
	// TicksPerCycle converts trace ticks to cycles. Zero and one both leave timestamps unchanged.
	TicksPerCycle uint64
}

// Table is a list of instructions in fetch order.
type Table struct {
	Instructions []trace.Instruction
}

func (t *Table) Len() int { return len(t.Instructions) }

// ControlFlow returns the number of instructions classified as control flow.
func (t *Table) ControlFlow() int {
	n := 0
	for i := range t.Instructions {
		if t.Instructions[i].ControlFlow {
			n++
		}
	}
	return n
}

// Build sorts instructions by fetch timestamp, breaking ties by sequence number, truncates them to opts.MaxRows and
// builds the corresponding matrix. insts isn't modified; only the retained rows are copied. Building from the same
// input always produces the same table.
func Build(insts Instructions, opts Options) (Table, Matrix) {
	// Sort indices instead of instructions so that we only copy the instructions we keep.
	indices := make([]int, insts.Len())
	for i := range indices {
		indices[i] = i
	}
	slices.SortStableFunc(indices, func(a, b int) int {
		ia, ib := insts.Ptr(a), insts.Ptr(b)
		if c := cmp.Compare(ia.Fetch(), ib.Fetch()); c != 0 {
			return c
		}
		return cmp.Compare(ia.SeqID, ib.SeqID)
	})
	if opts.MaxRows > 0 && opts.MaxRows < len(indices) {
		indices = indices[:opts.MaxRows]
	}

	tbl := Table{Instructions: make([]trace.Instruction, len(indices))}
	for i, idx := range indices {
		tbl.Instructions[i] = insts.Get(idx)
	}
	return tbl, NewMatrix(&tbl, opts.TicksPerCycle)
}
