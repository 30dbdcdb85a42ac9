// Package runner is a grpc-based alternative to internal/exec/local and
// internal/exec/ssh: a privileged out-of-process runner that accepts a
// single "run this command" RPC, grounded on the teacher's
// pkg/micro_runner (the JSON-over-stdio micro-runner protocol), adapted
// here to wire google.golang.org/grpc as transport instead of stdio pipes.
package runner

import (
	"time"

	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Request mirrors the teacher's protocol.CommandMessage, trimmed to the
// fields a single exec RPC needs.
type Request struct {
	ID      string            `json:"id"`
	Command string            `json:"command"`
	Sudo    bool              `json:"sudo"`
	Timeout time.Duration     `json:"timeout"`
	Env     map[string]string `json:"env,omitempty"`
}

// Response mirrors the teacher's protocol.DoneMessage/ErrorMessage,
// collapsed into one result shape since the RPC is unary.
type Response struct {
	CommandID string        `json:"command_id"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration"`
	Err       string        `json:"err,omitempty"`
}
