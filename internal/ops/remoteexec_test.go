package ops_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opereon/opereon/internal/model"
	"github.com/opereon/opereon/internal/ops"
)

func TestRemoteExecReturnsEmptyForNoHosts(t *testing.T) {
	m := &model.Manifest{Hosts: map[string]model.Host{}}
	op := ops.RemoteExecOp{Manifest: m, Expr: "", Command: "uptime"}

	out, err := op.Done(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ops.OutcomeEmpty, out.Kind)
}
