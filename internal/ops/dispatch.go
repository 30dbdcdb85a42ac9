package ops

import (
	"fmt"

	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/model"
	"github.com/opereon/opereon/internal/proto"
	"github.com/opereon/opereon/internal/vcs"
)

// Dispatch translates a proto.Request into the engine.OperationImpl[Outcome]
// that actually runs it — the boundary spec.md §6 places outside the
// engine's own scope. Sequence/Parallel requests recurse, building an
// engine.Sequence/Parallel of whatever their children dispatch to.
func Dispatch(eng *engine.Engine[Outcome], req proto.Request) (engine.OperationImpl[Outcome], error) {
	switch r := req.(type) {
	case proto.ConfigGet:
		return ConfigGetOp{}, nil
	case proto.ModelInit:
		return ModelInitOp{Path: r.Path}, nil
	case proto.ModelCommit:
		return ModelCommitOp{Path: r.Path, Message: r.Message}, nil
	case proto.ModelQuery:
		return ModelQueryOp{Path: r.Path, Rev: r.Rev, Expr: r.Expr}, nil
	case proto.ModelTest:
		return ModelTestOp{Path: r.Path, Rev: r.Rev}, nil
	case proto.ModelDiff:
		return ModelDiffOp{Path: r.Path, Before: r.Before, After: r.After}, nil
	case proto.ModelUpdate:
		return ModelUpdateOp{Path: r.Path, Rev: r.Rev, DryRun: r.DryRun}, nil
	case proto.ModelCheck:
		return ModelCheckOp{Path: r.Path, HostFilter: r.HostFilter}, nil
	case proto.ModelProbe:
		return ModelProbeOp{Path: r.Path, HostFilter: r.HostFilter}, nil
	case proto.ProcExec:
		m, err := loadManifestAt(eng, r.Path, vcs.Current(), "manifest.yaml")
		if err != nil {
			return nil, err
		}
		return ProcExecOp{Manifest: m, ProcName: r.Proc}, nil
	case proto.StepExec:
		m, err := loadManifestAt(eng, r.Path, vcs.Current(), "manifest.yaml")
		if err != nil {
			return nil, err
		}
		proc, ok := m.Procs[r.Proc]
		if !ok || r.Index < 0 || r.Index >= len(proc.Run) {
			return nil, fmt.Errorf("proto: step_exec: proc %q has no step %d", r.Proc, r.Index)
		}
		return StepExecOp{Manifest: m, Step: proc.Run[r.Index]}, nil
	case proto.TaskExec:
		m, err := loadManifestAt(eng, r.Path, vcs.Current(), "manifest.yaml")
		if err != nil {
			return nil, err
		}
		proc, ok := m.Procs[r.Proc]
		if !ok || r.Step < 0 || r.Step >= len(proc.Run) {
			return nil, fmt.Errorf("proto: task_exec: proc %q has no step %d", r.Proc, r.Step)
		}
		step := proc.Run[r.Step]
		if r.Task < 0 || r.Task >= len(step.Tasks) {
			return nil, fmt.Errorf("proto: task_exec: step %d has no task %d", r.Step, r.Task)
		}
		var host model.Host
		if r.Host != "" {
			host, ok = m.Hosts[r.Host]
			if !ok {
				return nil, fmt.Errorf("proto: task_exec: unknown host %q", r.Host)
			}
		}
		return TaskExecOp{Task: step.Tasks[r.Task], Host: host}, nil
	case proto.FileCopyExec:
		var host model.Host
		if r.Host != "" {
			host = model.Host{Hostname: r.Host, SSHDest: r.Host}
		}
		return FileCopyExecOp{Manifest: &model.Manifest{}, Host: host, Src: r.Src, Dest: r.Dest, Template: r.Template}, nil
	case proto.RemoteExec:
		m, err := loadManifestAt(eng, r.Path, vcs.Current(), "manifest.yaml")
		if err != nil {
			return nil, err
		}
		return RemoteExecOp{Manifest: m, Expr: r.Expr, Command: r.Command}, nil
	case proto.Sequence:
		children, err := dispatchChildren(eng, r.Children)
		if err != nil {
			return nil, err
		}
		return engine.NewSequence(children, CombineMany), nil
	case proto.Parallel:
		children, err := dispatchChildren(eng, r.Children)
		if err != nil {
			return nil, err
		}
		return engine.NewParallel(children, CombineMany), nil
	default:
		return nil, fmt.Errorf("proto: dispatch: unhandled request kind %q", req.Kind())
	}
}

func dispatchChildren(eng *engine.Engine[Outcome], reqs []proto.Request) ([]engine.Child[Outcome], error) {
	children := make([]engine.Child[Outcome], len(reqs))
	for i, child := range reqs {
		impl, err := Dispatch(eng, child)
		if err != nil {
			return nil, err
		}
		children[i] = engine.Child[Outcome]{Name: fmt.Sprintf("%s[%d]", child.Kind(), i), Impl: impl}
	}
	return children, nil
}
