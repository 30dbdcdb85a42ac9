package policy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const denyRule = `
package opereon.policies

deny[msg] {
	input.hosts_count > 10
	msg := "too many hosts in a single update"
}
`

func TestEvaluateAllowsWhenNoDeny(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	require.NoError(t, e.Load(Rule{Name: "host-count", Rego: denyRule, Severity: SeverityError, Enabled: true}))

	res, err := e.Evaluate(context.Background(), map[string]interface{}{"hosts_count": 3})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Empty(t, res.Violations)
}

func TestEvaluateDeniesOverThreshold(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	require.NoError(t, e.Load(Rule{Name: "host-count", Rego: denyRule, Severity: SeverityError, Enabled: true}))

	res, err := e.Evaluate(context.Background(), map[string]interface{}{"hosts_count": 42})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "too many hosts in a single update", res.Violations[0].Message)
}

func TestEvaluateSkipsDisabledRules(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	require.NoError(t, e.Load(Rule{Name: "host-count", Rego: denyRule, Severity: SeverityError, Enabled: false}))

	res, err := e.Evaluate(context.Background(), map[string]interface{}{"hosts_count": 42})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLoadRejectsUnnamedRule(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	assert.Error(t, e.Load(Rule{Rego: denyRule}))
}
