package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSource = `
worker_pool_size: 8
ssh_defaults: {
	user: "deploy"
	port: 22
	connect_timeout: 30
	strict_host_key_checking: true
}
policy_bundles: ["bundles/drift.rego"]
telemetry: {
	environment: "production"
}
`

func TestLoadValidConfig(t *testing.T) {
	l, err := NewLoader()
	require.NoError(t, err)

	cfg, err := l.Load([]byte(validSource))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.WorkerPoolSize)
	assert.Equal(t, "deploy", cfg.SSHDefaults.User)
	assert.Equal(t, []string{"bundles/drift.rego"}, cfg.PolicyBundles)
	assert.Equal(t, "production", cfg.Telemetry.Environment)
}

func TestLoadRejectsMissingWorkerPoolSize(t *testing.T) {
	l, err := NewLoader()
	require.NoError(t, err)

	_, err = l.Load([]byte(`
ssh_defaults: { user: "deploy", port: 22, connect_timeout: 30, strict_host_key_checking: true }
policy_bundles: []
telemetry: { environment: "production" }
`))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownEnvironment(t *testing.T) {
	l, err := NewLoader()
	require.NoError(t, err)

	_, err = l.Load([]byte(`
worker_pool_size: 1
ssh_defaults: { user: "deploy", port: 22, connect_timeout: 30, strict_host_key_checking: true }
policy_bundles: []
telemetry: { environment: "qa" }
`))
	assert.Error(t, err)
}

func TestDefaultConfigIsUsable(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.Equal(t, "development", cfg.Telemetry.Environment)
}
