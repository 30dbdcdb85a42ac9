package ops_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opereon/opereon/internal/ops"
)

const updatedManifestYAML = `
hosts:
  web1:
    hostname: web1.internal
    ssh_dest: web1
  web2:
    hostname: web2.internal
    ssh_dest: web2
procs:
  deploy:
    proc: exec
    run:
      - name: say-hello
        tasks:
          - task: exec
            command: echo hello
`

func TestModelUpdateDryRunReturnsDiffWithoutApplying(t *testing.T) {
	backend := newFakeBackend(sampleManifestYAML)
	backend.files["manifest.yaml"] = []byte(updatedManifestYAML)
	eng := testEngine(t, backend)

	h, err := eng.Enqueue("update", ops.ModelUpdateOp{Path: "/ws", Rev: "base", DryRun: true})
	require.NoError(t, err)

	out, err := waitFor(t, h)
	require.NoError(t, err)
	assert.Equal(t, ops.OutcomeDiff, out.Kind)
}

func TestModelCheckWithNoCheckProcsReturnsEmpty(t *testing.T) {
	eng := testEngine(t, newFakeBackend(sampleManifestYAML))

	h, err := eng.Enqueue("check", ops.ModelCheckOp{Path: "/ws"})
	require.NoError(t, err)

	out, err := waitFor(t, h)
	require.NoError(t, err)
	assert.Equal(t, ops.OutcomeEmpty, out.Kind)
}
