// Package trace parses O3 pipeline view traces and reconstructs per-instruction stage timelines from them.
//
// A trace is a line-oriented log of stage transitions, as emitted by an out-of-order CPU simulator. Each line records
// one stage of one in-flight instruction:
//
//	O3PipeView:fetch:2132747000:0x00400f16:0:4:  MOV_R_I : limm   eax, 0x1
//	O3PipeView:decode:2132754000
//	O3PipeView:rename:2132757000
//	O3PipeView:dispatch:2132760000
//	O3PipeView:issue:2132760000
//	O3PipeView:complete:2132763000
//	O3PipeView:retire:2132769000:store:0
//
// Instructions aren't delimited. A fetch line opens an instruction and all following stage lines belong to it, until
// the next fetch line.
package trace

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"honnef.co/go/pipeview/container"
)

const linePrefix = "O3PipeView"

type EventKind uint8

const (
	EventUnrecognized EventKind = iota
	EventFetchStart
	EventStageCompletion
)

func (k EventKind) String() string {
	switch k {
	case EventFetchStart:
		return "fetch-start"
	case EventStageCompletion:
		return "stage-completion"
	default:
		return "unrecognized"
	}
}

// Event describes one line of the trace.
type Event struct {
	Kind  EventKind
	Stage Stage
	// Cycle is the timestamp field of the line, in trace ticks. Zero is the trace producer's "not set" value.
	Cycle uint64

	// The following fields are only set for EventFetchStart.
	SeqID       uint64
	PC          uint64
	Mnemonic    string
	Disassembly string

	// Thread is the thread index found in a stage completion line, if any.
	Thread container.Option[uint32]
	// Payload holds the remainder of the line after the timestamp, e.g. "store:0" for retire lines.
	Payload string
}

// maxInterned bounds the number of distinct mnemonics a Lexer remembers. Real traces use a few hundred opcodes at
// most.
const maxInterned = 4096

// Lexer classifies trace lines. The zero value is not usable; use NewLexer. A Lexer must not be used concurrently.
type Lexer struct {
	upper     cases.Caser
	mnemonics map[string]string
}

func NewLexer() *Lexer {
	return &Lexer{
		upper:     cases.Upper(language.Und),
		mnemonics: make(map[string]string),
	}
}

// Lex classifies a single trimmed line. Lines that don't follow the grammar produce an event of kind
// EventUnrecognized; Lex never fails.
func (lx *Lexer) Lex(line string) Event {
	rest, ok := strings.CutPrefix(line, linePrefix+":")
	if !ok {
		return Event{}
	}
	tok, rest, _ := strings.Cut(rest, ":")
	stage, ok := ParseStage(tok)
	if !ok {
		return Event{}
	}
	if stage == StageFetch {
		return lx.lexFetch(rest)
	}

	cycleTok, payload, _ := strings.Cut(rest, ":")
	cycle, ok := parseDec(cycleTok)
	if !ok {
		return Event{}
	}
	ev := Event{
		Kind:    EventStageCompletion,
		Stage:   stage,
		Cycle:   cycle,
		Payload: payload,
	}
	// Multi-threaded traces carry the thread index in the field following the timestamp.
	field, _, _ := strings.Cut(payload, ":")
	if tid, ok := parseDec(field); ok && tid <= 1<<32-1 {
		ev.Thread = container.Some(uint32(tid))
	}
	return ev
}

// lexFetch parses the fields following "O3PipeView:fetch:", which are
//
//	<tick>:0x<pc>:<upc>:<seq>:<disassembly>
//
// The disassembly is free-form and may itself contain colons.
func (lx *Lexer) lexFetch(rest string) Event {
	fields := strings.SplitN(rest, ":", 5)
	if len(fields) != 5 {
		return Event{}
	}
	cycle, ok := parseDec(fields[0])
	if !ok {
		return Event{}
	}
	hex, ok := strings.CutPrefix(fields[1], "0x")
	if !ok {
		hex, ok = strings.CutPrefix(fields[1], "0X")
	}
	if !ok {
		return Event{}
	}
	pc, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return Event{}
	}
	if _, ok := parseDec(fields[2]); !ok {
		return Event{}
	}
	seq, ok := parseDec(fields[3])
	if !ok {
		return Event{}
	}
	disasm := strings.TrimSpace(fields[4])
	mnemonic := disasm
	if i := strings.IndexAny(disasm, " \t"); i >= 0 {
		mnemonic = disasm[:i]
	}
	if mnemonic == "" {
		return Event{}
	}
	return Event{
		Kind:        EventFetchStart,
		Stage:       StageFetch,
		Cycle:       cycle,
		SeqID:       seq,
		PC:          pc,
		Mnemonic:    lx.canonical(mnemonic),
		Disassembly: disasm,
	}
}

func (lx *Lexer) canonical(mnemonic string) string {
	if s, ok := lx.mnemonics[mnemonic]; ok {
		return s
	}
	s := lx.upper.String(mnemonic)
	if len(lx.mnemonics) < maxInterned {
		lx.mnemonics[strings.Clone(mnemonic)] = s
	}
	return s
}

// parseDec parses a non-negative decimal integer without allocating an error on failure.
func parseDec(s string) (uint64, bool) {
	if s == "" || len(s) > 20 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
