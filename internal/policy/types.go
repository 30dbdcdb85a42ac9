// Package policy gates ModelCheck outcomes through Open Policy Agent —
// adapted from pkg/policy, whose Rego-based violation/severity model is
// kept, re-pointed at a small map built by ModelCheck (host count, path,
// host filter) instead of the teacher's resource-DAG Config/Resource input.
package policy

import "time"

// Severity classifies how strongly a violated Rule should block an operation.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rule is one named Rego policy.
type Rule struct {
	Name     string
	Rego     string
	Severity Severity
	Enabled  bool
}

// Violation is one Rule failing against a given input.
type Violation struct {
	Rule        string
	Message     string
	Severity    Severity
	DetectedAt  time.Time
}

// Result is the outcome of evaluating every enabled Rule against an input.
type Result struct {
	Allowed    bool
	Violations []Violation
	Warnings   []Violation
}
