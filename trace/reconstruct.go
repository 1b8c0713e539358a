package trace

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"honnef.co/go/pipeview/container"
	"honnef.co/go/pipeview/mem"
)

// Instruction is the reconstructed lifetime of one instruction.
type Instruction struct {
	// SeqID is the simulator's sequence number. It ties together all events of the instruction.
	SeqID       uint64
	PC          uint64
	Mnemonic    string
	Disassembly string
	// Thread is the hardware thread the instruction ran on. It defaults to 0 and is bound at most once, from the
	// first stage line that carries a thread index.
	Thread      uint32
	ThreadKnown bool
	// ControlFlow is a presentation heuristic, see IsControlFlow.
	ControlFlow bool
	// Stages holds the timestamp of each stage, indexed by Stage. The fetch entry is always set. For all other
	// stages, 0 means that the stage wasn't recorded; the trace format can't distinguish that from a stage that
	// completed at tick 0.
	Stages [NumStages]uint64
}

// Fetch returns the fetch timestamp.
func (inst *Instruction) Fetch() uint64 { return inst.Stages[StageFetch] }

// Recorded reports whether the instruction has a usable timestamp for the stage.
func (inst *Instruction) Recorded(s Stage) bool {
	return s == StageFetch || inst.Stages[s] != 0
}

// IsControlFlow guesses whether a mnemonic denotes a control flow instruction. It matches mnemonics starting with J
// (jumps and conditional branches on x86) and mnemonics containing CALL, ignoring case. The classification is only
// used to highlight rows and isn't architecturally exact; RET, LOOP and non-x86 branches aren't detected.
func IsControlFlow(mnemonic string) bool {
	m := strings.ToUpper(mnemonic)
	return strings.HasPrefix(m, "J") || strings.Contains(m, "CALL")
}

// Diagnostics counts what happened to the lines of a trace.
type Diagnostics struct {
	Lines       int // lines read, including blank and malformed ones
	Blank       int
	Fetches     int // fetch lines, equal to the number of reconstructed instructions
	Completions int // stage completion lines attributed to an instruction
	Malformed   int // non-blank lines that didn't parse
	Orphaned    int // stage completion lines seen before any fetch line
	Truncated   int // lines discarded because they exceeded the maximum line length
	Threads     int // instructions whose thread was bound from a stage line
}

// Dropped returns the number of non-blank lines that didn't contribute to any instruction.
func (d Diagnostics) Dropped() int {
	return d.Malformed + d.Orphaned + d.Truncated
}

func (d Diagnostics) String() string {
	return fmt.Sprintf("%d lines, %d instructions, %d malformed, %d orphaned, %d truncated",
		d.Lines, d.Fetches, d.Malformed, d.Orphaned, d.Truncated)
}

type outcome uint8

const (
	outcomeOpened outcome = iota
	outcomeApplied
	outcomeOrphaned
	outcomeMalformed
)

// fold advances the reconstruction state by one event. The state is the currently open instruction, if any. When the
// event closes the open instruction, it is returned in closed.
func fold(open container.Option[Instruction], ev Event) (next, closed container.Option[Instruction], out outcome) {
	switch ev.Kind {
	case EventFetchStart:
		inst := Instruction{
			SeqID:       ev.SeqID,
			PC:          ev.PC,
			Mnemonic:    ev.Mnemonic,
			Disassembly: ev.Disassembly,
			ControlFlow: IsControlFlow(ev.Mnemonic),
		}
		inst.Stages[StageFetch] = ev.Cycle
		return container.Some(inst), open, outcomeOpened

	case EventStageCompletion:
		inst, ok := open.Get()
		if !ok {
			// The fetch line was lost or precedes the window captured by the trace.
			return open, container.None[Instruction](), outcomeOrphaned
		}
		// Flushes and replays can report a stage more than once; the last report wins.
		inst.Stages[ev.Stage] = ev.Cycle
		if tid, ok := ev.Thread.Get(); ok && !inst.ThreadKnown {
			inst.Thread = tid
			inst.ThreadKnown = true
		}
		return container.Some(inst), container.None[Instruction](), outcomeApplied

	default:
		return open, container.None[Instruction](), outcomeMalformed
	}
}

// Reconstructor assembles instructions from a stream of trace lines, in file order. Instructions are emitted in the
// order of their fetch lines. A Reconstructor never fails; lines it can't use are counted in its Diagnostics.
type Reconstructor struct {
	lx   *Lexer
	open container.Option[Instruction]
	out  mem.BucketSlice[Instruction]
	diag Diagnostics
}

func NewReconstructor() *Reconstructor {
	return &Reconstructor{lx: NewLexer()}
}

// Line processes one raw line of the trace.
func (r *Reconstructor) Line(line string) {
	r.diag.Lines++
	line = strings.TrimSpace(line)
	if line == "" {
		r.diag.Blank++
		return
	}
	r.Step(r.lx.Lex(line))
}

// Step processes one already lexed event.
func (r *Reconstructor) Step(ev Event) {
	hadThread := false
	if inst, ok := r.open.Get(); ok {
		hadThread = inst.ThreadKnown
	}

	next, closed, out := fold(r.open, ev)
	if inst, ok := closed.Get(); ok {
		r.out.Append(inst)
	}
	r.open = next

	switch out {
	case outcomeOpened:
		r.diag.Fetches++
	case outcomeApplied:
		r.diag.Completions++
		if inst, _ := next.Get(); inst.ThreadKnown && !hadThread {
			r.diag.Threads++
		}
	case outcomeOrphaned:
		r.diag.Orphaned++
	case outcomeMalformed:
		r.diag.Malformed++
	}
}

// Finish closes the open instruction, if any, and returns all instructions. The Reconstructor must not be used
// afterwards.
func (r *Reconstructor) Finish() *mem.BucketSlice[Instruction] {
	if inst, ok := r.open.Get(); ok {
		r.out.Append(inst)
		r.open = container.None[Instruction]()
	}
	return &r.out
}

func (r *Reconstructor) Diagnostics() Diagnostics {
	return r.diag
}

// MaxLineLength is the longest line ReadInstructions accepts. Longer lines are discarded and counted as truncated.
const MaxLineLength = 64 * 1024

// ReadInstructions reconstructs all instructions of the trace read from r. The trace is streamed; only the
// reconstructed instructions are kept in memory. The returned error is only ever an error returned by r, in which
// case the instructions reconstructed so far are returned as well.
func ReadInstructions(r io.Reader) (*mem.BucketSlice[Instruction], Diagnostics, error) {
	rec := NewReconstructor()
	br := bufio.NewReaderSize(r, MaxLineLength)
	skipping := false
	for {
		line, isPrefix, err := br.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rec.Finish(), rec.Diagnostics(), fmt.Errorf("reading trace: %w", err)
		}
		switch {
		case skipping:
			// Remainder of an over-long line.
			skipping = isPrefix
		case isPrefix:
			rec.diag.Lines++
			rec.diag.Truncated++
			skipping = true
		default:
			rec.Line(string(line))
		}
	}
	return rec.Finish(), rec.Diagnostics(), nil
}
