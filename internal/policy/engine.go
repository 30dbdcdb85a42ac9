package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"
)

// Engine compiles and evaluates Rego rules against arbitrary input —
// grounded on pkg/policy's Engine, trimmed of its built-in OPA storage
// backend and resource/plan-specific input types: ModelCheck passes it a
// plain map (hosts_count, path, host_filter) built from the loaded
// model.Manifest, rather than the teacher's engine.Config/engine.Plan
// structs.
type Engine struct {
	mu     sync.RWMutex
	rules  map[string]Rule
	logger zerolog.Logger
}

// NewEngine constructs an Engine with no rules loaded.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		rules:  make(map[string]Rule),
		logger: logger.With().Str("component", "policy").Logger(),
	}
}

// Load registers r, replacing any existing rule of the same name.
func (e *Engine) Load(r Rule) error {
	if r.Name == "" {
		return fmt.Errorf("policy: rule missing name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[r.Name] = r
	return nil
}

// Evaluate runs every enabled rule's "deny" query against input and
// aggregates the result. A rule failing to compile or evaluate produces a
// Warning rather than aborting the whole gate — the teacher's engine.go
// follows the same "log and continue" shape for per-policy failures.
func (e *Engine) Evaluate(ctx context.Context, input map[string]interface{}) (Result, error) {
	e.mu.RLock()
	rules := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if r.Enabled {
			rules = append(rules, r)
		}
	}
	e.mu.RUnlock()

	var violations, warnings []Violation
	for _, r := range rules {
		vs, err := e.evaluateRule(ctx, r, input)
		if err != nil {
			e.logger.Warn().Err(err).Str("rule", r.Name).Msg("policy rule evaluation failed")
			warnings = append(warnings, Violation{
				Rule:       r.Name,
				Message:    err.Error(),
				Severity:   SeverityWarning,
				DetectedAt: time.Now(),
			})
			continue
		}
		violations = append(violations, vs...)
	}

	allowed := true
	for _, v := range violations {
		if v.Severity == SeverityError || v.Severity == SeverityCritical {
			allowed = false
			break
		}
	}

	return Result{Allowed: allowed, Violations: violations, Warnings: warnings}, nil
}

func (e *Engine) evaluateRule(ctx context.Context, r Rule, input map[string]interface{}) ([]Violation, error) {
	pkg := extractPackageName(r.Rego)
	query := fmt.Sprintf("data.%s.deny", pkg)

	eval := rego.New(
		rego.Module(r.Name, r.Rego),
		rego.Query(query),
		rego.Input(input),
	)

	results, err := eval.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: evaluate %s: %w", r.Name, err)
	}

	var violations []Violation
	for _, result := range results {
		if len(result.Expressions) == 0 {
			continue
		}
		denySet, ok := result.Expressions[0].Value.([]interface{})
		if !ok {
			continue
		}
		for _, d := range denySet {
			violations = append(violations, toViolation(r, d))
		}
	}
	return violations, nil
}

func toViolation(r Rule, result interface{}) Violation {
	v := Violation{Rule: r.Name, Severity: r.Severity, DetectedAt: time.Now()}
	switch val := result.(type) {
	case string:
		v.Message = val
	case map[string]interface{}:
		if msg, ok := val["message"].(string); ok {
			v.Message = msg
		}
		if sev, ok := val["severity"].(string); ok {
			v.Severity = Severity(sev)
		}
	default:
		v.Message = fmt.Sprintf("%v", result)
	}
	return v
}

func extractPackageName(regoSrc string) string {
	for _, line := range strings.Split(regoSrc, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			fields := strings.Fields(trimmed)
			if len(fields) >= 2 {
				return fields[1]
			}
		}
	}
	return "opereon.policies"
}
