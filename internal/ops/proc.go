package ops

import (
	"context"
	"fmt"
	"os"

	"github.com/opereon/opereon/internal/config"
	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/exec/local"
	"github.com/opereon/opereon/internal/exec/rsync"
	"github.com/opereon/opereon/internal/exec/runner"
	"github.com/opereon/opereon/internal/exec/ssh"
	"github.com/opereon/opereon/internal/exec/wasm"
	"github.com/opereon/opereon/internal/model"
)

// ProcExecOp runs every Step of a named Proc as a Sequence combinator — the
// three-level procedure/step/task hierarchy SPEC_FULL.md §4.8 describes.
type ProcExecOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Manifest *model.Manifest
	ProcName string
	Host     model.Host
}

func (o ProcExecOp) Done(ctx context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	proc, ok := o.Manifest.Procs[o.ProcName]
	if !ok {
		return Outcome{}, engine.NewFailure(fmt.Sprintf("proc %q not found", o.ProcName), nil)
	}

	children := make([]engine.Child[Outcome], len(proc.Run))
	for i, step := range proc.Run {
		children[i] = engine.Child[Outcome]{
			Name: fmt.Sprintf("%s.step[%d]", o.ProcName, i),
			Impl: StepExecOp{Manifest: o.Manifest, Step: step, Host: o.Host},
		}
	}

	seq := engine.NewSequence(children, CombineMany)
	h, err := eng.Enqueue(fmt.Sprintf("proc:%s", o.ProcName), seq)
	if err != nil {
		return Outcome{}, err
	}
	return h.Wait(ctx)
}

// StepExecOp runs every Task of a Step, sequentially or in parallel per
// Step.Parallel.
type StepExecOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Manifest *model.Manifest
	Step     model.Step
	Host     model.Host
}

func (o StepExecOp) Done(ctx context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	children := make([]engine.Child[Outcome], len(o.Step.Tasks))
	for i, task := range o.Step.Tasks {
		name := task.Name
		if name == "" {
			name = fmt.Sprintf("task[%d]", i)
		}
		children[i] = engine.Child[Outcome]{Name: name, Impl: TaskExecOp{Task: task, Host: o.Host}}
	}

	var handle engine.Handle[Outcome]
	var err error
	if o.Step.Parallel {
		handle, err = eng.Enqueue(o.Step.Name, engine.NewParallel(children, CombineMany))
	} else {
		handle, err = eng.Enqueue(o.Step.Name, engine.NewSequence(children, CombineMany))
	}
	if err != nil {
		return Outcome{}, err
	}
	return handle.Wait(ctx)
}

// TaskExecOp is the leaf of the hierarchy: it dispatches to the local shell
// or an SSH destination depending on whether Host names an SSH
// destination, matching spec.md §6's "local shell, SSH, file copy,
// template render" driver selection.
type TaskExecOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Task model.Task
	Host model.Host
}

func (o TaskExecOp) Done(ctx context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	switch o.Task.Kind {
	case model.TaskExecKind, model.TaskCommandKind, model.TaskScriptKind:
		return o.runCommand(ctx, eng)
	case model.TaskSwitchKind:
		return o.runSwitch(ctx, eng)
	case model.TaskWasmKind:
		return o.runWasm(ctx)
	case model.TaskFileCopyKind, model.TaskTemplateKind:
		copyOp := FileCopyExecOp{
			Manifest: &model.Manifest{},
			Host:     o.Host,
			Src:      o.Task.Src,
			Dest:     o.Task.Dest,
			Template: o.Task.Kind == model.TaskTemplateKind,
		}
		return copyOp.Done(ctx, eng, nil)
	case model.TaskFileCompareKind:
		diffs, err := rsync.Compare(ctx, rsync.Params{Source: o.Task.Src, Destination: o.Task.Dest})
		if err != nil {
			return Outcome{}, engine.NewFailure("compare files", err)
		}
		entries := make([]DiffEntry, len(diffs))
		for i, d := range diffs {
			entries[i] = DiffEntry{Path: d.Path, Kind: d.Change}
		}
		return Diff(entries), nil
	default:
		return Outcome{}, engine.NewFailure(fmt.Sprintf("task kind %q not implemented by TaskExec", o.Task.Kind), nil)
	}
}

func (o TaskExecOp) runCommand(ctx context.Context, eng *engine.Engine[Outcome]) (Outcome, error) {
	command := o.Task.Command
	if o.Task.Kind == model.TaskScriptKind {
		command = o.Task.Script
	}

	// Sudo tasks against a host that names a runner address delegate to the
	// privileged out-of-process runner instead of "sudo"-prefixing the SSH
	// command, so the sudo password/policy never has to reach the SSH
	// session at all.
	if o.Task.Sudo && o.Host.RunnerAddr != "" {
		return o.runViaRunner(ctx, command)
	}

	if o.Host.SSHDest == "" {
		res, err := local.Run(ctx, command)
		if err != nil {
			return Outcome{}, engine.NewFailure("run local task", err)
		}
		return Command(CommandResult{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}), nil
	}

	dest := ssh.Dest{Host: o.Host.Hostname, AuthMethod: ssh.AuthMethodAgent, User: "root", Port: 22}
	if guard, err := engine.ServiceFor[*config.Config](eng.Registry()); err == nil {
		defaults := guard.Value().SSHDefaults
		dest.User = defaults.User
		dest.Port = defaults.Port
		dest.ConnectTimeout = defaults.ConnectTimeout
		dest.StrictHostKeyChecking = defaults.StrictHostKeyChecking
		guard.Release()
	}

	client, err := ssh.Dial(ctx, dest)
	if err != nil {
		return Outcome{}, engine.NewFailure("dial ssh destination", err)
	}
	defer client.Close()

	res, err := client.Run(ctx, command, o.Task.Sudo)
	if err != nil {
		return Outcome{}, engine.NewFailure("run remote task", err)
	}
	return Command(CommandResult{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}), nil
}

func (o TaskExecOp) runViaRunner(ctx context.Context, command string) (Outcome, error) {
	client, err := runner.Dial(ctx, o.Host.RunnerAddr)
	if err != nil {
		return Outcome{}, engine.NewFailure("dial runner", err)
	}
	defer client.Close()

	resp, err := client.Run(ctx, &runner.Request{ID: o.Task.Name, Command: command})
	if err != nil {
		return Outcome{}, engine.NewFailure("run privileged task", err)
	}
	if resp.Err != "" {
		return Outcome{}, engine.NewFailure("privileged task failed", fmt.Errorf("%s", resp.Err))
	}
	return Command(CommandResult{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}), nil
}

func (o TaskExecOp) runWasm(ctx context.Context) (Outcome, error) {
	moduleBytes, err := os.ReadFile(o.Task.ModulePath)
	if err != nil {
		return Outcome{}, engine.NewFailure("read wasm module", err)
	}

	res, err := wasm.Run(ctx, moduleBytes, o.Task.Args)
	if err != nil {
		return Outcome{}, engine.NewFailure("run wasm task", err)
	}
	return Command(CommandResult{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}), nil
}

func (o TaskExecOp) runSwitch(ctx context.Context, eng *engine.Engine[Outcome]) (Outcome, error) {
	for _, c := range o.Task.Cases {
		match, err := model.EvalGuard(c.When)
		if err != nil {
			return Outcome{}, engine.NewFailure("evaluate switch guard", err)
		}
		if !match {
			continue
		}

		children := make([]engine.Child[Outcome], len(c.Run))
		for i, step := range c.Run {
			children[i] = engine.Child[Outcome]{
				Name: fmt.Sprintf("case[%d]", i),
				Impl: StepExecOp{Manifest: &model.Manifest{}, Step: step, Host: o.Host},
			}
		}
		h, err := eng.Enqueue("switch-case", engine.NewSequence(children, CombineMany))
		if err != nil {
			return Outcome{}, err
		}
		return h.Wait(ctx)
	}
	return Empty(), nil
}
