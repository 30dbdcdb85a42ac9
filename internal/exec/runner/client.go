package runner

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client dials a remote runner server and issues Run RPCs against it.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a runner server at addr (host:port). The connection
// carries no transport security and Dial opens no tunnel: addr is dialed
// directly (TaskExec passes a host's RunnerAddr as is).
func Dial(ctx context.Context, addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("runner: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Run invokes the remote Run RPC and returns its result.
func (c *Client) Run(ctx context.Context, req *Request) (*Response, error) {
	resp := new(Response)
	err := c.conn.Invoke(ctx, "/"+serviceName+"/Run", req, resp, grpc.CallContentSubtype("json"))
	if err != nil {
		return nil, fmt.Errorf("runner: run %q: %w", req.Command, err)
	}
	return resp, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
