package trace

import (
	"strconv"
	"strings"
)

// Stage is one phase of pipelined instruction processing. Stages are ordered canonically, from fetch to retire.
type Stage uint8

const (
	StageFetch Stage = iota
	StageDecode
	StageRename
	StageDispatch
	StageIssue
	StageComplete
	StageRetire

	NumStages = int(StageRetire) + 1
)

var stageNames = [NumStages]string{
	StageFetch:    "fetch",
	StageDecode:   "decode",
	StageRename:   "rename",
	StageDispatch: "dispatch",
	StageIssue:    "issue",
	StageComplete: "complete",
	StageRetire:   "retire",
}

// Stages lists all stages in canonical order.
var Stages = [NumStages]Stage{
	StageFetch, StageDecode, StageRename, StageDispatch, StageIssue, StageComplete, StageRetire,
}

func (s Stage) String() string {
	if int(s) >= NumStages {
		return "Stage(" + strconv.Itoa(int(s)) + ")"
	}
	return stageNames[s]
}

// Title returns the capitalized stage name, as used for column labels.
func (s Stage) Title() string {
	name := s.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseStage maps a stage token to a Stage. Matching is case-insensitive.
func ParseStage(tok string) (Stage, bool) {
	for i, name := range stageNames {
		if strings.EqualFold(tok, name) {
			return Stage(i), true
		}
	}
	return 0, false
}
