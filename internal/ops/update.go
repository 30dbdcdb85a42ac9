package ops

import (
	"context"
	"fmt"

	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/exec/ssh"
	"github.com/opereon/opereon/internal/model"
	"github.com/opereon/opereon/internal/policy"
	"github.com/opereon/opereon/internal/vcs"
)

// ModelUpdateOp reconciles the workspace at Path: it diffs Rev against the
// working tree and, unless DryRun, runs every update Proc whose Watches
// intersect the changed paths — spec.md §6's ModelUpdate, expanded per
// SPEC_FULL.md §4.8 to actually drive the Proc/Step/Task hierarchy rather
// than stopping at the diff.
type ModelUpdateOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Path   string
	Rev    string
	DryRun bool
}

func (o ModelUpdateOp) Done(ctx context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	before, err := loadManifestAt(eng, o.Path, revOf(o.Rev), "manifest.yaml")
	if err != nil {
		return Outcome{}, err
	}
	after, err := loadManifestAt(eng, o.Path, vcs.Current(), "manifest.yaml")
	if err != nil {
		return Outcome{}, err
	}

	changes := model.Diff(before, after)
	if o.DryRun || len(changes) == 0 {
		entries := make([]DiffEntry, len(changes))
		for i, c := range changes {
			entries[i] = DiffEntry{Path: c.Path, Kind: string(c.Kind)}
		}
		return Diff(entries), nil
	}

	changedPaths := make(map[string]bool, len(changes))
	for _, c := range changes {
		changedPaths[c.Path] = true
	}

	var children []engine.Child[Outcome]
	for name, proc := range after.Procs {
		if proc.Kind != model.ProcUpdateKind || !watchesMatch(proc.Watches, changedPaths) {
			continue
		}
		children = append(children, engine.Child[Outcome]{
			Name: name,
			Impl: ProcExecOp{Manifest: after, ProcName: name},
		})
	}

	if len(children) == 0 {
		return Empty(), nil
	}

	handle, err := eng.Enqueue("model-update", engine.NewSequence(children, CombineMany))
	if err != nil {
		return Outcome{}, err
	}
	return handle.Wait(ctx)
}

func watchesMatch(watches []model.Watch, changed map[string]bool) bool {
	for _, w := range watches {
		if changed[w.Path] {
			return true
		}
	}
	return false
}

// ModelCheckOp runs every check Proc against the model at Rev in Parallel
// and gates the aggregate result through the engine's policy.Engine
// service, if one is registered. HostFilter does not restrict which procs
// run; it is only passed to the policy gate as host_filter.
type ModelCheckOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Path       string
	Rev        string
	HostFilter string
}

func (o ModelCheckOp) Done(ctx context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	m, err := loadManifestAt(eng, o.Path, revOf(o.Rev), "manifest.yaml")
	if err != nil {
		return Outcome{}, err
	}

	var children []engine.Child[Outcome]
	for name, proc := range m.Procs {
		if proc.Kind != model.ProcCheckKind {
			continue
		}
		children = append(children, engine.Child[Outcome]{
			Name: name,
			Impl: ProcExecOp{Manifest: m, ProcName: name},
		})
	}

	var result Outcome
	if len(children) > 0 {
		handle, err := eng.Enqueue("model-check", engine.NewParallel(children, CombineMany))
		if err != nil {
			return Outcome{}, err
		}
		result, err = handle.Wait(ctx)
		if err != nil {
			return Outcome{}, err
		}
	} else {
		result = Empty()
	}

	guard, err := engine.ServiceFor[*policy.Engine](eng.Registry())
	if err != nil {
		return result, nil
	}
	defer guard.Release()

	verdict, err := guard.Value().Evaluate(ctx, map[string]interface{}{
		"hosts_count": len(m.Hosts),
		"path":        o.Path,
		"host_filter": o.HostFilter,
	})
	if err != nil {
		return Outcome{}, engine.NewFailure("evaluate policy gate", err)
	}
	if !verdict.Allowed {
		return Outcome{}, engine.NewFailure("policy gate denied model check", fmt.Errorf("%d violation(s)", len(verdict.Violations)))
	}
	return result, nil
}

// ModelProbeOp opens an SSH connection to every host matching HostFilter
// (or all hosts, if empty) and gathers a small set of remote facts, per
// spec.md §6's ModelProbe.
type ModelProbeOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Path       string
	Rev        string
	HostFilter string
}

func (o ModelProbeOp) Done(ctx context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	m, err := loadManifestAt(eng, o.Path, revOf(o.Rev), "manifest.yaml")
	if err != nil {
		return Outcome{}, err
	}

	selector := RemoteExecOp{Manifest: m, Expr: o.HostFilter}
	selected, err := selector.selectHosts()
	if err != nil {
		return Outcome{}, err
	}

	facts := make([]interface{}, 0, len(selected))
	for _, h := range selected {
		dest := ssh.Dest{Host: h.Hostname, AuthMethod: ssh.AuthMethodAgent, User: "root", Port: 22}
		client, err := ssh.Dial(ctx, dest)
		if err != nil {
			facts = append(facts, map[string]interface{}{"hostname": h.Hostname, "reachable": false, "error": err.Error()})
			continue
		}
		res, err := client.Run(ctx, "uname -a", false)
		client.Close()
		if err != nil {
			facts = append(facts, map[string]interface{}{"hostname": h.Hostname, "reachable": false, "error": err.Error()})
			continue
		}
		facts = append(facts, map[string]interface{}{"hostname": h.Hostname, "reachable": true, "uname": res.Stdout})
	}
	return NodeSet(facts), nil
}
