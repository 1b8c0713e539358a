package timeline

import (
	"fmt"
	"iter"
	"math"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
	"honnef.co/go/pipeview/container"
	"honnef.co/go/pipeview/trace"
)

// Latency describes the distribution of the distance, in cycles, between an instruction's fetch and one of its later
// stages.
type Latency struct {
	Count        int
	Min, Max     int64
	Mean, Median float64
}

type Statistics struct {
	Rows int
	// IPC is the number of instructions per cycle, computed as the number of rows divided by the distance between
	// the earliest fetch and the latest retirement. It is None when there are fewer than two present fetch or retire
	// timestamps, or when the distance isn't positive.
	IPC container.Option[float64]
	// Cycles is the distance used as the divisor of IPC.
	Cycles container.Option[uint64]
	// Latency is indexed by stage. The fetch entry is always None. An entry is None if no row has both a fetch and a
	// timestamp for the stage.
	Latency [trace.NumStages]container.Option[Latency]
}

// ComputeStatistics computes statistics from a matrix. A missing timestamp excludes the row from the statistics of
// that stage only.
func ComputeStatistics(m *Matrix) Statistics {
	stats := Statistics{Rows: m.Len()}

	fetchLo, _, fetchN := minMax(m.Column(trace.StageFetch))
	_, retireHi, retireN := minMax(m.Column(trace.StageRetire))
	if fetchN >= 2 && retireN >= 2 && retireHi > fetchLo {
		d := retireHi - fetchLo
		stats.Cycles = container.Some(d)
		stats.IPC = container.Some(float64(m.Len()) / float64(d))
	}

	var values []int64
	for _, s := range trace.Stages[trace.StageFetch+1:] {
		values = values[:0]
		for i := range m.Rows {
			fetch, ok1 := m.Rows[i][trace.StageFetch].Get()
			v, ok2 := m.Rows[i][s].Get()
			if ok1 && ok2 {
				values = append(values, distance(fetch, v))
			}
		}
		stats.Latency[s] = distribution(values)
	}

	return stats
}

func distribution(values []int64) container.Option[Latency] {
	if len(values) == 0 {
		return container.None[Latency]()
	}
	slices.Sort(values)

	lat := Latency{
		Count: len(values),
		Min:   values[0],
		Max:   values[len(values)-1],
	}
	// Sum in floating point; int64 sums of large tick counts overflow.
	var total float64
	for _, v := range values {
		total += float64(v)
	}
	lat.Mean = total / float64(len(values))
	if len(values)%2 == 0 {
		mid := len(values) / 2
		a, b := float64(values[mid-1]), float64(values[mid])
		lat.Median = a + (b-a)/2
	} else {
		lat.Median = float64(values[len(values)/2])
	}
	return container.Some(lat)
}

// distance returns to - from, saturated to the range of int64.
func distance(from, to uint64) int64 {
	if to >= from {
		return int64(min(to-from, math.MaxInt64))
	}
	return -int64(min(from-to, math.MaxInt64))
}

// FormatIPC formats an IPC value with three decimals, or as "undefined".
func FormatIPC(ipc container.Option[float64]) string {
	if v, ok := ipc.Get(); ok {
		return fmt.Sprintf("%.3f", v)
	}
	return "undefined"
}

func minMax[T constraints.Ordered](seq iter.Seq[T]) (lo, hi T, n int) {
	for v := range seq {
		if n == 0 || v < lo {
			lo = v
		}
		if n == 0 || v > hi {
			hi = v
		}
		n++
	}
	return lo, hi, n
}
