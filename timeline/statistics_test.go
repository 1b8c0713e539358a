package timeline

import (
	"math"
	"testing"

	"honnef.co/go/pipeview/container"
	"honnef.co/go/pipeview/trace"
)

func TestStatisticsIPC(t *testing.T) {
	tests := []struct {
		name   string
		insts  Slice
		ipc    float64
		cycles uint64
		ok     bool
	}{
		{
			name: "regular",
			// Fetches 10..13, retirements up to 30: 4 rows over 20 cycles.
			insts: Slice{
				inst(1, 10, 0, 0, 0, 0, 0, 20),
				inst(2, 11, 0, 0, 0, 0, 0, 25),
				inst(3, 12, 0, 0, 0, 0, 0, 30),
				inst(4, 13),
			},
			ipc: 0.2, cycles: 20, ok: true,
		},
		{
			name: "single retirement",
			insts: Slice{
				inst(1, 10, 0, 0, 0, 0, 0, 20),
				inst(2, 11),
			},
		},
		{
			name:  "single row",
			insts: Slice{inst(1, 10, 0, 0, 0, 0, 0, 20)},
		},
		{
			name: "no retirements",
			insts: Slice{
				inst(1, 10, 12),
				inst(2, 11, 13),
			},
		},
		{
			name: "non-positive span",
			insts: Slice{
				inst(1, 50, 0, 0, 0, 0, 0, 40),
				inst(2, 60, 0, 0, 0, 0, 0, 50),
			},
		},
		{name: "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := Build(tt.insts, Options{})
			stats := ComputeStatistics(&m)
			ipc, ok := stats.IPC.Get()
			if ok != tt.ok {
				t.Fatalf("got IPC %v, want defined=%t", stats.IPC, tt.ok)
			}
			if !ok {
				if FormatIPC(stats.IPC) != "undefined" {
					t.Fatalf("undefined IPC formatted as %q", FormatIPC(stats.IPC))
				}
				return
			}
			if math.Abs(ipc-tt.ipc) > 1e-9 {
				t.Fatalf("got IPC %f, want %f", ipc, tt.ipc)
			}
			if c, _ := stats.Cycles.Get(); c != tt.cycles {
				t.Fatalf("got %d cycles, want %d", c, tt.cycles)
			}
		})
	}
}

func TestStatisticsLatency(t *testing.T) {
	_, m := Build(Slice{
		inst(1, 2, 3, 4, 5, 6, 7, 8),
		inst(2, 2, 3, 4, 5, 7, 8, 9),
		inst(3, 3, 4, 5, 6, 7, 9, 10),
		inst(4, 4, 5, 6),
	}, Options{})
	stats := ComputeStatistics(&m)

	if stats.Latency[trace.StageFetch].Set() {
		t.Fatal("fetch has a latency")
	}
	if l := stats.Latency[trace.StageDecode].MustGet(); l != (Latency{Count: 4, Min: 1, Max: 1, Mean: 1, Median: 1}) {
		t.Fatalf("unexpected decode latency %+v", l)
	}

	// The fourth row has no retire timestamp and is excluded from the retire column only.
	l := stats.Latency[trace.StageRetire].MustGet()
	if l.Count != 3 || l.Min != 6 || l.Max != 7 || l.Median != 7 || math.Abs(l.Mean-20.0/3) > 1e-9 {
		t.Fatalf("unexpected retire latency %+v", l)
	}
	if l := stats.Latency[trace.StageRename].MustGet(); l.Count != 4 || l.Median != 2 {
		t.Fatalf("unexpected rename latency %+v", l)
	}

	ipc, _ := stats.IPC.Get()
	if ipc != 0.5 || FormatIPC(stats.IPC) != "0.500" {
		t.Fatalf("got IPC %f", ipc)
	}
}

func TestDistribution(t *testing.T) {
	tests := []struct {
		in   []int64
		want container.Option[Latency]
	}{
		{nil, container.None[Latency]()},
		{[]int64{5}, container.Some(Latency{Count: 1, Min: 5, Max: 5, Mean: 5, Median: 5})},
		{[]int64{4, 1, 3, 2}, container.Some(Latency{Count: 4, Min: 1, Max: 4, Mean: 2.5, Median: 2.5})},
		{[]int64{-2, 10, 1}, container.Some(Latency{Count: 3, Min: -2, Max: 10, Mean: 3, Median: 1})},
	}
	for _, tt := range tests {
		if got := distribution(tt.in); got != tt.want {
			t.Fatalf("distribution(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		from, to uint64
		want     int64
	}{
		{10, 15, 5},
		{15, 10, -5},
		{0, math.MaxUint64, math.MaxInt64},
		{math.MaxUint64, 0, -math.MaxInt64},
		{1 << 63, 1<<63 + 7, 7},
	}
	for _, tt := range tests {
		if got := distance(tt.from, tt.to); got != tt.want {
			t.Fatalf("distance(%d, %d) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatisticsLargeTicks(t *testing.T) {
	const base = 1 << 63
	_, m := Build(Slice{
		inst(1, base, 0, 0, 0, 0, 0, base+10),
		inst(2, base+2, 0, 0, 0, 0, 0, base+20),
	}, Options{})
	stats := ComputeStatistics(&m)

	l := stats.Latency[trace.StageRetire].MustGet()
	if l.Min != 10 || l.Max != 18 || l.Mean != 14 || l.Median != 14 {
		t.Fatalf("unexpected retire latency %+v", l)
	}
	if c, _ := stats.Cycles.Get(); c != 20 {
		t.Fatalf("got %d cycles, want 20", c)
	}

	big := []int64{math.MaxInt64, math.MaxInt64 - 2}
	got := distribution(big).MustGet()
	if got.Median < math.MaxInt64/2 || got.Mean < math.MaxInt64/2 {
		t.Fatalf("median or mean overflowed: %+v", got)
	}
}
