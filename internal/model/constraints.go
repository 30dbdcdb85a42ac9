package model

import (
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ConstraintsFile is the conventional filename ModelTest looks for beside a
// workspace's manifest.yaml: CUE constraints narrowing the manifest beyond
// what go-playground/validator/v10's struct tags can express (per-host
// label requirements, proc-count ceilings, naming conventions) — the same
// cuelang.org/go dependency internal/config's Loader already uses for
// bootstrap config, applied here to workspace manifests instead.
const ConstraintsFile = "constraints.cue"

// ValidateConstraints checks m against the CUE schema in source. A
// workspace with no constraints file is valid by construction — CUE
// constraints are an opt-in narrowing on top of Validate's structural
// checks, not a replacement for them, so ModelTestOp only calls this when
// a constraints.cue is actually present in the workspace.
func ValidateConstraints(m *Manifest, source []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(source)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("model: compile %s: %w", ConstraintsFile, err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("model: encode manifest: %w", err)
	}
	val := ctx.CompileBytes(data)
	if err := val.Err(); err != nil {
		return fmt.Errorf("model: encode manifest: %w", err)
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("model: constraints: %w", err)
	}
	return nil
}
