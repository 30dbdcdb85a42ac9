package ops_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opereon/opereon/internal/config"
	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/model"
	"github.com/opereon/opereon/internal/ops"
	"github.com/opereon/opereon/internal/vcs"
)

const sampleManifestYAML = `
hosts:
  web1:
    hostname: web1.internal
    ssh_dest: web1
procs:
  deploy:
    proc: exec
    run:
      - name: say-hello
        tasks:
          - task: exec
            command: echo hello
`

// fakeBackend is an in-memory vcs.Backend stand-in so internal/ops tests
// don't need a real git binary on PATH.
type fakeBackend struct {
	files map[string][]byte
}

func newFakeBackend(manifest string) *fakeBackend {
	return &fakeBackend{files: map[string][]byte{"manifest.yaml": []byte(manifest)}}
}

func (f *fakeBackend) Init(string) error { return nil }

func (f *fakeBackend) Checkout(string, vcs.RevPath) (vcs.Metadata, error) {
	return vcs.Metadata{Revision: "HEAD"}, nil
}

func (f *fakeBackend) Commit(string, string) (vcs.Metadata, error) {
	return vcs.Metadata{Revision: "HEAD", Message: "test"}, nil
}

func (f *fakeBackend) ReadFile(_ string, _ vcs.RevPath, file string) ([]byte, error) {
	data, ok := f.files[file]
	if !ok {
		return nil, assert.AnError
	}
	return data, nil
}

func (f *fakeBackend) Diff(string, vcs.RevPath, vcs.RevPath) (string, error) { return "", nil }

func testEngine(t *testing.T, backend vcs.Backend) *engine.Engine[ops.Outcome] {
	t.Helper()
	services := []any{config.Default()}
	if backend != nil {
		services = append(services, &vcs.Registered{Backend: backend})
	}
	eng := engine.New[ops.Outcome](services, nil)
	go eng.Start()
	t.Cleanup(eng.Stop)
	return eng
}

func waitFor(t *testing.T, h engine.Handle[ops.Outcome]) (ops.Outcome, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.Wait(ctx)
}

func TestConfigGetReturnsNodeSet(t *testing.T) {
	eng := testEngine(t, nil)
	h, err := eng.Enqueue("config", ops.ConfigGetOp{})
	require.NoError(t, err)

	out, err := waitFor(t, h)
	require.NoError(t, err)
	assert.Equal(t, ops.OutcomeNodeSet, out.Kind)
	assert.Len(t, out.NodeSet, 1)
}

func TestModelQueryReturnsHostEntries(t *testing.T) {
	eng := testEngine(t, newFakeBackend(sampleManifestYAML))
	h, err := eng.Enqueue("query", ops.ModelQueryOp{Path: "/ws", Expr: "hosts"})
	require.NoError(t, err)

	out, err := waitFor(t, h)
	require.NoError(t, err)
	assert.Equal(t, ops.OutcomeNodeSet, out.Kind)
	assert.Len(t, out.NodeSet, 1)
}

func TestModelTestValidatesManifest(t *testing.T) {
	eng := testEngine(t, newFakeBackend(sampleManifestYAML))
	h, err := eng.Enqueue("test", ops.ModelTestOp{Path: "/ws"})
	require.NoError(t, err)

	out, err := waitFor(t, h)
	require.NoError(t, err)
	assert.Equal(t, ops.OutcomeEmpty, out.Kind)
}

func TestProcExecRunsLocalCommand(t *testing.T) {
	eng := testEngine(t, newFakeBackend(sampleManifestYAML))

	h, err := eng.Enqueue("query", ops.ModelQueryOp{Path: "/ws", Expr: "hosts"})
	require.NoError(t, err)
	_, err = waitFor(t, h)
	require.NoError(t, err)

	ph, err := eng.Enqueue("proc", ops.ProcExecOp{
		Manifest: mustLoadManifest(t, eng),
		ProcName: "deploy",
	})
	require.NoError(t, err)

	out, err := waitFor(t, ph)
	require.NoError(t, err)
	assert.Equal(t, ops.OutcomeMany, out.Kind)
	require.Len(t, out.Many, 1)
	inner := out.Many[0]
	require.Len(t, inner.Many, 1)
	assert.Equal(t, ops.OutcomeCommand, inner.Many[0].Kind)
	assert.Equal(t, 0, inner.Many[0].Command.ExitCode)
}

func mustLoadManifest(t *testing.T, eng *engine.Engine[ops.Outcome]) *model.Manifest {
	t.Helper()
	guard, err := engine.ServiceFor[*vcs.Registered](eng.Registry())
	require.NoError(t, err)
	defer guard.Release()

	data, err := guard.Value().ReadFile("/ws", vcs.Current(), "manifest.yaml")
	require.NoError(t, err)

	m, err := model.ParseBytes(data, "manifest.yaml")
	require.NoError(t, err)
	return m
}
