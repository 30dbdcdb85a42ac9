package ops

import (
	"context"
	"fmt"

	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/model"
	"github.com/opereon/opereon/internal/vcs"
)

// revOf turns a proto-supplied revision string ("" meaning "working tree")
// into a vcs.RevPath.
func revOf(rev string) vcs.RevPath {
	if rev == "" {
		return vcs.Current()
	}
	return vcs.Revision(rev)
}

// LoadManifest reads and parses the workspace manifest at workspacePath as
// of rev ("" meaning the working tree) — exported for callers outside this
// package (cmd/opereon) that need a Manifest to build a RemoteExecOp or
// inspect hosts before dispatching.
func LoadManifest(eng *engine.Engine[Outcome], workspacePath string, rev string) (*model.Manifest, error) {
	return loadManifestAt(eng, workspacePath, revOf(rev), "manifest.yaml")
}

// loadManifestAt reads and parses the manifest file at workspacePath/path
// as of rev, via the workspace's vcs.Backend service.
func loadManifestAt(eng *engine.Engine[Outcome], workspacePath string, rev vcs.RevPath, manifestFile string) (*model.Manifest, error) {
	guard, err := engine.ServiceFor[*vcs.Registered](eng.Registry())
	if err != nil {
		return nil, engine.NewFailure("vcs backend unavailable", err)
	}
	defer guard.Release()

	data, err := guard.Value().ReadFile(workspacePath, rev, manifestFile)
	if err != nil {
		return nil, engine.NewFailure(fmt.Sprintf("read manifest at %s", rev), err)
	}

	return model.ParseBytes(data, manifestFile)
}

// loadConstraintsAt reads model.ConstraintsFile at workspacePath as of rev,
// via the same vcs.Backend service loadManifestAt uses. A workspace with no
// constraints file is the common case, not an error: found reports whether
// one was present at all.
func loadConstraintsAt(eng *engine.Engine[Outcome], workspacePath string, rev vcs.RevPath) (source []byte, found bool, err error) {
	guard, err := engine.ServiceFor[*vcs.Registered](eng.Registry())
	if err != nil {
		return nil, false, engine.NewFailure("vcs backend unavailable", err)
	}
	defer guard.Release()

	data, readErr := guard.Value().ReadFile(workspacePath, rev, model.ConstraintsFile)
	if readErr != nil {
		return nil, false, nil
	}
	return data, true, nil
}

// ModelInitOp creates a new workspace at Path via internal/vcs.
type ModelInitOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Path string
}

func (o ModelInitOp) Done(_ context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	guard, err := engine.ServiceFor[*vcs.Registered](eng.Registry())
	if err != nil {
		return Outcome{}, engine.NewFailure("vcs backend unavailable", err)
	}
	defer guard.Release()

	if err := guard.Value().Init(o.Path); err != nil {
		return Outcome{}, engine.NewFailure("init workspace", err)
	}
	return Empty(), nil
}

// ModelCommitOp commits the current workspace tree.
type ModelCommitOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Path    string
	Message string
}

func (o ModelCommitOp) Done(_ context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	guard, err := engine.ServiceFor[*vcs.Registered](eng.Registry())
	if err != nil {
		return Outcome{}, engine.NewFailure("vcs backend unavailable", err)
	}
	defer guard.Release()

	meta, err := guard.Value().Commit(o.Path, o.Message)
	if err != nil {
		return Outcome{}, engine.NewFailure("commit workspace", err)
	}
	return NodeSet([]interface{}{map[string]interface{}{"revision": meta.Revision, "message": meta.Message}}), nil
}

// ModelQueryOp evaluates Expr against the model at Rev.
type ModelQueryOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Path string
	Rev  string
	Expr string
}

func (o ModelQueryOp) Done(_ context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	m, err := loadManifestAt(eng, o.Path, revOf(o.Rev), "manifest.yaml")
	if err != nil {
		return Outcome{}, err
	}

	values, err := model.Query(m, o.Expr)
	if err != nil {
		return Outcome{}, engine.NewFailure("evaluate query expression", err)
	}
	return NodeSet(values), nil
}

// ModelTestOp validates the model at Rev against its structural invariants.
type ModelTestOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Path string
	Rev  string
}

func (o ModelTestOp) Done(_ context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	rev := revOf(o.Rev)

	m, err := loadManifestAt(eng, o.Path, rev, "manifest.yaml")
	if err != nil {
		return Outcome{}, err
	}
	if err := model.Validate(m); err != nil {
		return Outcome{}, engine.NewFailure("model validation failed", err)
	}

	source, found, err := loadConstraintsAt(eng, o.Path, rev)
	if err != nil {
		return Outcome{}, err
	}
	if found {
		if err := model.ValidateConstraints(m, source); err != nil {
			return Outcome{}, engine.NewFailure("model constraints failed", err)
		}
	}

	return Empty(), nil
}

// ModelDiffOp diffs two model revisions.
type ModelDiffOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
	Path   string
	Before string
	After  string
}

func (o ModelDiffOp) Done(_ context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	before, err := loadManifestAt(eng, o.Path, revOf(o.Before), "manifest.yaml")
	if err != nil {
		return Outcome{}, err
	}
	after, err := loadManifestAt(eng, o.Path, revOf(o.After), "manifest.yaml")
	if err != nil {
		return Outcome{}, err
	}

	changes := model.Diff(before, after)
	entries := make([]DiffEntry, len(changes))
	for i, c := range changes {
		entries[i] = DiffEntry{Path: c.Path, Kind: string(c.Kind)}
	}
	return Diff(entries), nil
}
