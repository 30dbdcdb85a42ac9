// Package model holds the opereon node-tree definitions — the declarative
// shape a workspace manifest resolves into: hosts, users and the nested
// procedure/step/task hierarchy that the engine's Proc/Step/Task operations
// walk. Grounded on op-model/src/defs/{host,user,proc/*}.rs in the
// pre-distillation implementation, re-expressed as plain Go structs rather
// than a parsed-node-tree-with-lazy-expression-evaluation design — model
// resolution here is a one-shot YAML/TOML unmarshal, with Starlark handling
// only the explicit "expr" fields that need deferred evaluation.
package model

// Host is a managed remote machine.
type Host struct {
	Hostname   string            `yaml:"hostname" toml:"hostname" json:"hostname"`
	SSHDest    string            `yaml:"ssh_dest" toml:"ssh_dest" json:"ssh_dest"`
	RunnerAddr string            `yaml:"runner_addr,omitempty" toml:"runner_addr,omitempty" json:"runner_addr,omitempty"`
	Labels     map[string]string `yaml:"labels,omitempty" toml:"labels,omitempty" json:"labels,omitempty"`
}

// User is a remote account a task may run as.
type User struct {
	Username string `yaml:"username" toml:"username" json:"username"`
}

// ChangeMask is the set of change kinds a Watch reacts to (add/remove/change).
type ChangeMask string

const (
	ChangeAdd    ChangeMask = "add"
	ChangeRemove ChangeMask = "remove"
	ChangeUpdate ChangeMask = "update"
	ChangeAny    ChangeMask = "any"
)

// Watch names a model path and the kinds of change to it that should
// trigger re-evaluation of an Update procedure.
type Watch struct {
	Path string     `yaml:"path" toml:"path" json:"path"`
	Mask ChangeMask `yaml:"mask" toml:"mask" json:"mask"`
}

// TaskKind is the kind of leaf work a Task performs. Mirrors op-model's
// TaskKind enum (exec, switch, template, command, script, file-copy,
// file-compare), plus wasm, added for sandboxed task bodies; "switch" is
// realized in Go as a Task whose Cases field is populated instead of a
// separate combinator type.
type TaskKind string

const (
	TaskExecKind        TaskKind = "exec"
	TaskSwitchKind      TaskKind = "switch"
	TaskTemplateKind    TaskKind = "template"
	TaskCommandKind     TaskKind = "command"
	TaskScriptKind      TaskKind = "script"
	TaskFileCopyKind    TaskKind = "file-copy"
	TaskFileCompareKind TaskKind = "file-compare"
	TaskWasmKind        TaskKind = "wasm"
)

// Case is one branch of a Switch task: a guard expression and the steps to
// run when it evaluates truthy.
type Case struct {
	When string `yaml:"when" toml:"when" json:"when"`
	Run  []Step `yaml:"run" toml:"run" json:"run"`
}

// Task is the leaf unit of work dispatched to a process driver.
type Task struct {
	Name    string   `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	Kind    TaskKind `yaml:"task" toml:"task" json:"task"`
	Command string   `yaml:"command,omitempty" toml:"command,omitempty" json:"command,omitempty"`
	Script  string   `yaml:"script,omitempty" toml:"script,omitempty" json:"script,omitempty"`
	Sudo    bool     `yaml:"sudo,omitempty" toml:"sudo,omitempty" json:"sudo,omitempty"`

	// Template/file-copy/file-compare fields.
	Src  string `yaml:"src,omitempty" toml:"src,omitempty" json:"src,omitempty"`
	Dest string `yaml:"dest,omitempty" toml:"dest,omitempty" json:"dest,omitempty"`

	// Switch cases, populated only when Kind == TaskSwitchKind.
	Cases []Case `yaml:"cases,omitempty" toml:"cases,omitempty" json:"cases,omitempty"`

	// Wasm fields, populated only when Kind == TaskWasmKind: ModulePath
	// names a WASI-compiled module on disk, Args are its argv.
	ModulePath string   `yaml:"module_path,omitempty" toml:"module_path,omitempty" json:"module_path,omitempty"`
	Args       []string `yaml:"args,omitempty" toml:"args,omitempty" json:"args,omitempty"`
}

// Step is an ordered (or, if Parallel, concurrent) group of tasks — the
// unit StepExec runs as a Sequence or Parallel combinator.
type Step struct {
	Name     string `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	Parallel bool   `yaml:"parallel,omitempty" toml:"parallel,omitempty" json:"parallel,omitempty"`
	Tasks    []Task `yaml:"tasks" toml:"tasks" json:"tasks"`
}

// ProcKind classifies a Proc's role: a one-shot action, a drift check, or a
// reconciling update (the only kind that may declare Watches).
type ProcKind string

const (
	ProcExecKind   ProcKind = "exec"
	ProcCheckKind  ProcKind = "check"
	ProcUpdateKind ProcKind = "update"
)

// Proc is the top-level named procedure: a Kind, an ordered list of Steps,
// and (for ProcUpdateKind) the Watches that decide when it must re-run.
type Proc struct {
	ID      string   `yaml:"id,omitempty" toml:"id,omitempty" json:"id,omitempty"`
	Label   string   `yaml:"label,omitempty" toml:"label,omitempty" json:"label,omitempty"`
	Kind    ProcKind `yaml:"proc" toml:"proc" json:"proc"`
	Watches []Watch  `yaml:"watch,omitempty" toml:"watch,omitempty" json:"watch,omitempty"`
	Run     []Step   `yaml:"run" toml:"run" json:"run"`
}

// Manifest is the root of a resolved workspace model.
type Manifest struct {
	Hosts map[string]Host `yaml:"hosts" toml:"hosts" json:"hosts"`
	Users map[string]User `yaml:"users,omitempty" toml:"users,omitempty" json:"users,omitempty"`
	Procs map[string]Proc `yaml:"procs" toml:"procs" json:"procs"`
}
