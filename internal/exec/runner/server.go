package runner

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/opereon/opereon/internal/exec/local"
)

// ServeLocal starts a grpc server on lis whose Run RPC executes commands via
// internal/exec/local — the privileged out-of-process counterpart to an
// in-process local.Run call, for hosts that run opereon's task engine
// unprivileged but delegate individual commands to a setuid runner process.
func ServeLocal(lis net.Listener) *grpc.Server {
	s := grpc.NewServer()
	RegisterRunnerServer(s, handleLocal)
	go s.Serve(lis)
	return s
}

func handleLocal(ctx context.Context, req *Request) (*Response, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := local.Run(runCtx, req.Command)
	resp := &Response{
		CommandID: req.ID,
		Stdout:    res.Stdout,
		Stderr:    res.Stderr,
		ExitCode:  res.ExitCode,
		Duration:  time.Since(start),
	}
	if err != nil {
		resp.Err = err.Error()
	}
	return resp, nil
}
