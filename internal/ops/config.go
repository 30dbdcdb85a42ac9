package ops

import (
	"context"

	"github.com/opereon/opereon/internal/config"
	"github.com/opereon/opereon/internal/engine"
)

// ConfigGetOp reads the resolved bootstrap configuration out of the
// engine's own service registry — grounded on op-core/src/ops/mod.rs's
// simplest operations, which do nothing but read a value out of Context.
type ConfigGetOp struct {
	engine.NopInit[Outcome]
	engine.ImmediateProgress[Outcome]
}

// Done resolves the current *config.Config service into a NodeSet outcome.
func (ConfigGetOp) Done(_ context.Context, eng *engine.Engine[Outcome], _ *engine.OperationRef[Outcome]) (Outcome, error) {
	guard, err := engine.ServiceFor[*config.Config](eng.Registry())
	if err != nil {
		return Outcome{}, engine.NewFailure("config service unavailable", err)
	}
	defer guard.Release()

	cfg := guard.Value()
	return NodeSet([]interface{}{
		map[string]interface{}{
			"worker_pool_size": cfg.WorkerPoolSize,
			"ssh_user":         cfg.SSHDefaults.User,
			"policy_bundles":   cfg.PolicyBundles,
			"environment":      cfg.Telemetry.Environment,
		},
	}), nil
}
