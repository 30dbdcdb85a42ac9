package runner_test

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opereon/opereon/internal/exec/runner"
)

func startServer(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := runner.ServeLocal(lis)
	t.Cleanup(s.Stop)
	return lis.Addr().String()
}

func TestRunExecutesCommandOverGRPC(t *testing.T) {
	addr := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := runner.Dial(ctx, addr)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Run(ctx, &runner.Request{ID: "1", Command: "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ExitCode)
	assert.True(t, strings.Contains(resp.Stdout, "hello"))
	assert.Equal(t, "1", resp.CommandID)
}

func TestRunReportsNonZeroExit(t *testing.T) {
	addr := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := runner.Dial(ctx, addr)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Run(ctx, &runner.Request{ID: "2", Command: "exit 7"})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.ExitCode)
}
