// Package ops implements every domain operation named in spec.md §6's
// wire enumeration as an engine.OperationImpl[Outcome], and translates
// internal/proto.Request into one via Dispatch. Grounded on
// op-core/src/context.rs (the Context enum each request variant becomes)
// and op-core/src/ops/mod.rs (the command-running operation shape).
package ops

import "fmt"

// OutcomeKind tags which conventional encoding an Outcome carries — the six
// shapes spec.md §6 names: Empty, NodeSet, Diff, File, Many, Command.
type OutcomeKind string

const (
	OutcomeEmpty   OutcomeKind = "empty"
	OutcomeNodeSet OutcomeKind = "node_set"
	OutcomeDiff    OutcomeKind = "diff"
	OutcomeFile    OutcomeKind = "file"
	OutcomeMany    OutcomeKind = "many"
	OutcomeCommand OutcomeKind = "command"
)

// Outcome is the engine's T for this repository: the value type every
// domain operation resolves to (or an error, via the engine's own
// Cancelled/FailureError types — Outcome never itself carries failure).
type Outcome struct {
	Kind OutcomeKind

	NodeSet []interface{}      // OutcomeNodeSet
	Diff    []DiffEntry        // OutcomeDiff
	File    string             // OutcomeFile: path to the produced/transferred file
	Many    []Outcome          // OutcomeMany
	Command CommandResult      // OutcomeCommand
}

// DiffEntry is one changed path, independent of internal/model's own
// Change type so internal/ops does not need to import internal/vcs's diff
// output just to shape this field — ModelDiffOp, ModelUpdateOp and the
// file-compare task convert into it directly.
type DiffEntry struct {
	Path string
	Kind string
}

// CommandResult is the result of one executed shell/SSH command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Empty is the zero-payload Outcome, returned by operations whose effect is
// side-effecting only (e.g. a ModelInit with nothing further to report).
func Empty() Outcome { return Outcome{Kind: OutcomeEmpty} }

// NodeSet wraps a ModelQuery/ModelProbe result list.
func NodeSet(values []interface{}) Outcome { return Outcome{Kind: OutcomeNodeSet, NodeSet: values} }

// Diff wraps a ModelDiff result.
func Diff(entries []DiffEntry) Outcome { return Outcome{Kind: OutcomeDiff, Diff: entries} }

// File wraps a FileCopyExec result.
func File(path string) Outcome { return Outcome{Kind: OutcomeFile, File: path} }

// Many wraps a Sequence/Parallel aggregate result — the "Many(list)"
// encoding §6 calls out for combinators exposed at the request boundary.
func Many(outcomes []Outcome) Outcome { return Outcome{Kind: OutcomeMany, Many: outcomes} }

// Command wraps a single TaskExec command result (ProcExec, StepExec and
// RemoteExec aggregate their children as Many).
func Command(res CommandResult) Outcome { return Outcome{Kind: OutcomeCommand, Command: res} }

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeEmpty:
		return "Empty"
	case OutcomeNodeSet:
		return fmt.Sprintf("NodeSet(%d items)", len(o.NodeSet))
	case OutcomeDiff:
		return fmt.Sprintf("Diff(%d changes)", len(o.Diff))
	case OutcomeFile:
		return fmt.Sprintf("File(%s)", o.File)
	case OutcomeMany:
		return fmt.Sprintf("Many(%d outcomes)", len(o.Many))
	case OutcomeCommand:
		return fmt.Sprintf("Command(exit=%d)", o.Command.ExitCode)
	default:
		return "Outcome(unknown)"
	}
}

// CombineMany is the combine func passed to engine.NewSequence/NewParallel
// for a generic request-boundary combinator — it applies the conventional
// Many(list) encoding unconditionally.
func CombineMany(results []Outcome) Outcome { return Many(results) }
