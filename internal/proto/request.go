// Package proto is the wire operation-request enumeration spec.md §6 names:
// sixteen variants, translated to a concrete engine operation at the
// boundary by internal/ops.Dispatch — "that translation is out of the
// engine's scope". Rust would reach for an enum; Go has none, so each
// variant is its own struct implementing the Request marker interface, the
// same "interface + one struct per case" idiom the teacher uses for its
// own provider/resource kind dispatch (pkg/providers). Both
// encoding/json and gopkg.in/yaml.v3 can marshal a Request because every
// field is a plain exported value — no custom (Un)MarshalJSON is needed
// for the fields themselves, only for recovering the right Go type from a
// "kind" tag on decode (see decode.go).
package proto

// Request is implemented by every one of the sixteen wire operation kinds.
type Request interface {
	Kind() string
}

// ConfigGet reads the resolved internal/config bootstrap configuration.
type ConfigGet struct{}

func (ConfigGet) Kind() string { return "config_get" }

// ModelInit creates a new workspace at Path via internal/vcs.
type ModelInit struct {
	Path string `json:"path" yaml:"path"`
}

func (ModelInit) Kind() string { return "model_init" }

// ModelCommit commits the current workspace tree.
type ModelCommit struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

func (ModelCommit) Kind() string { return "model_commit" }

// ModelQuery evaluates Expr against the model at Rev.
type ModelQuery struct {
	Path string `json:"path" yaml:"path"`
	Rev  string `json:"rev,omitempty" yaml:"rev,omitempty"`
	Expr string `json:"expr" yaml:"expr"`
}

func (ModelQuery) Kind() string { return "model_query" }

// ModelTest validates the model at Rev against its schema and constraints.
type ModelTest struct {
	Path string `json:"path" yaml:"path"`
	Rev  string `json:"rev,omitempty" yaml:"rev,omitempty"`
}

func (ModelTest) Kind() string { return "model_test" }

// ModelDiff diffs two model revisions.
type ModelDiff struct {
	Path   string `json:"path" yaml:"path"`
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
}

func (ModelDiff) Kind() string { return "model_diff" }

// ModelUpdate computes a diff and (unless DryRun) applies it.
type ModelUpdate struct {
	Path   string `json:"path" yaml:"path"`
	Rev    string `json:"rev,omitempty" yaml:"rev,omitempty"`
	DryRun bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

func (ModelUpdate) Kind() string { return "model_update" }

// ModelCheck runs a drift check for HostFilter, gated by policy.
type ModelCheck struct {
	Path       string `json:"path" yaml:"path"`
	HostFilter string `json:"host_filter,omitempty" yaml:"host_filter,omitempty"`
}

func (ModelCheck) Kind() string { return "model_check" }

// ModelProbe gathers remote facts from HostFilter.
type ModelProbe struct {
	Path       string `json:"path" yaml:"path"`
	HostFilter string `json:"host_filter,omitempty" yaml:"host_filter,omitempty"`
}

func (ModelProbe) Kind() string { return "model_probe" }

// ProcExec runs the named Proc from the model.
type ProcExec struct {
	Path string `json:"path" yaml:"path"`
	Proc string `json:"proc" yaml:"proc"`
}

func (ProcExec) Kind() string { return "proc_exec" }

// StepExec runs one Step (by index within its parent Proc) standalone.
type StepExec struct {
	Path  string `json:"path" yaml:"path"`
	Proc  string `json:"proc" yaml:"proc"`
	Index int    `json:"index" yaml:"index"`
}

func (StepExec) Kind() string { return "step_exec" }

// TaskExec runs one Task standalone, optionally against Host.
type TaskExec struct {
	Path  string `json:"path" yaml:"path"`
	Proc  string `json:"proc" yaml:"proc"`
	Step  int    `json:"step" yaml:"step"`
	Task  int    `json:"task" yaml:"task"`
	Host  string `json:"host,omitempty" yaml:"host,omitempty"`
}

func (TaskExec) Kind() string { return "task_exec" }

// FileCopyExec renders (optionally) and transfers Src to Dest on Host.
type FileCopyExec struct {
	Host     string `json:"host" yaml:"host"`
	Src      string `json:"src" yaml:"src"`
	Dest     string `json:"dest" yaml:"dest"`
	Template bool   `json:"template,omitempty" yaml:"template,omitempty"`
}

func (FileCopyExec) Kind() string { return "file_copy_exec" }

// RemoteExec selects hosts via Expr and runs Command on each.
type RemoteExec struct {
	Path    string `json:"path" yaml:"path"`
	Expr    string `json:"expr" yaml:"expr"`
	Command string `json:"command" yaml:"command"`
}

func (RemoteExec) Kind() string { return "remote_exec" }

// Sequence composes Children, run one after another.
type Sequence struct {
	Children []Request `json:"children" yaml:"children"`
}

func (Sequence) Kind() string { return "sequence" }

// Parallel composes Children, run concurrently.
type Parallel struct {
	Children []Request `json:"children" yaml:"children"`
}

func (Parallel) Kind() string { return "parallel" }
