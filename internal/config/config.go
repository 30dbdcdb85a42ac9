// Package config holds the engine's own bootstrap configuration — worker
// pool size, SSH defaults, policy bundle paths, telemetry settings — kept
// distinct from internal/model's workspace manifests per SPEC_FULL.md
// §10.3. Adapted from pkg/config: CUE (cuelang.org/go) is the schema
// language both here and in the teacher, since the teacher already reaches
// for CUE for exactly config-shaped typed data; what is dropped is the
// Starlark-based procedural evaluation layer (pkg/config/starlark_eval.go)
// and the engine.Evaluator plumbing, which served the teacher's resource
// DAG and has no counterpart in a flat bootstrap config.
package config

import (
	"fmt"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Config is the engine's bootstrap configuration.
type Config struct {
	WorkerPoolSize int           `json:"worker_pool_size"`
	SSHDefaults    SSHDefaults   `json:"ssh_defaults"`
	PolicyBundles  []string      `json:"policy_bundles"`
	Telemetry      TelemetryOpts `json:"telemetry"`
}

// SSHDefaults seeds internal/exec/ssh.Dest fields a manifest host entry
// does not override.
type SSHDefaults struct {
	User                  string        `json:"user"`
	Port                  int           `json:"port"`
	ConnectTimeout        time.Duration `json:"connect_timeout"`
	StrictHostKeyChecking bool          `json:"strict_host_key_checking"`
}

// TelemetryOpts seeds internal/telemetry.Config's environment field.
type TelemetryOpts struct {
	Environment string `json:"environment"`
}

// schema is the CUE constraint every bootstrap config must satisfy.
const schema = `
worker_pool_size: int & >=1
ssh_defaults: {
	user: string
	port: int & >=1 & <=65535
	connect_timeout: int & >=0
	strict_host_key_checking: bool
}
policy_bundles: [...string]
telemetry: {
	environment: "development" | "staging" | "production"
}
`

// Loader compiles bootstrap configs against the CUE schema above.
type Loader struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewLoader constructs a Loader, compiling the schema once.
func NewLoader() (*Loader, error) {
	ctx := cuecontext.New()
	val := ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("config: compile schema: %w", err)
	}
	return &Loader{ctx: ctx, schema: val}, nil
}

// Load parses source (CUE syntax) and validates it against the schema,
// returning the decoded Config.
func (l *Loader) Load(source []byte) (*Config, error) {
	val := l.ctx.CompileString(string(source))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	unified := l.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Default returns a Config suitable for local development.
func Default() *Config {
	return &Config{
		WorkerPoolSize: 4,
		SSHDefaults: SSHDefaults{
			User:           "root",
			Port:           22,
			ConnectTimeout: 30 * time.Second,
		},
		Telemetry: TelemetryOpts{Environment: "development"},
	}
}
