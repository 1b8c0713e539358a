package timeline

import (
	"iter"

	"honnef.co/go/pipeview/container"
	"honnef.co/go/pipeview/trace"
)

// Cell is one timestamp of the matrix. None marks a missing timestamp.
type Cell = container.Option[uint64]

// Row holds the timestamps of one instruction, indexed by trace.Stage.
type Row [trace.NumStages]Cell

// Matrix is a dense instruction-by-stage grid of timestamps, in table order. Missing timestamps are explicit; the
// trace format's sentinel 0 never appears as a present value, except in the fetch column, where 0 is a real
// timestamp.
type Matrix struct {
	Rows []Row
}

// NewMatrix builds the matrix for a table. Timestamps are divided by ticksPerCycle, if it is larger than one, after
// the sentinel rule has been applied to the raw value. A recorded non-fetch stage that completed within the first cycle
// is placed in cycle 1, so that scaling never produces a present 0 outside the fetch column.
func NewMatrix(tbl *Table, ticksPerCycle uint64) Matrix {
	if ticksPerCycle == 0 {
		ticksPerCycle = 1
	}
	m := Matrix{Rows: make([]Row, len(tbl.Instructions))}
	for i := range tbl.Instructions {
		inst := &tbl.Instructions[i]
		for _, s := range trace.Stages {
			if !inst.Recorded(s) {
				continue
			}
			v := inst.Stages[s] / ticksPerCycle
			if s != trace.StageFetch {
				v = max(v, 1)
			}
			m.Rows[i][s] = container.Some(v)
		}
	}
	return m
}

func (m *Matrix) Len() int { return len(m.Rows) }

func (m *Matrix) At(row int, s trace.Stage) Cell {
	return m.Rows[row][s]
}

// Column iterates over the present values of a stage, in row order.
func (m *Matrix) Column(s trace.Stage) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for i := range m.Rows {
			if v, ok := m.Rows[i][s].Get(); ok {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Present iterates over all present values, row by row.
func (m *Matrix) Present() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for i := range m.Rows {
			for _, c := range m.Rows[i] {
				if v, ok := c.Get(); ok {
					if !yield(v) {
						return
					}
				}
			}
		}
	}
}

// Bounds returns the smallest and largest present value in the matrix. Renderers use it to scale colors. ok is false
// if the matrix has no present values.
func (m *Matrix) Bounds() (lo, hi uint64, ok bool) {
	lo, hi, n := minMax(m.Present())
	return lo, hi, n > 0
}
