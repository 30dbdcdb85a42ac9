package ssh

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Client is one connected SSH session to a Dest.
type Client struct {
	dest   Dest
	conn   *ssh.Client
	sftp   *sftp.Client
}

// Result is the outcome of a single remote command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Dial opens an SSH connection, racing it against ctx cancellation the same
// way internal/engine/driver.go races a hook against the cancel channel —
// ssh.Dial itself is not context-aware, so it is run on its own goroutine.
func Dial(ctx context.Context, dest Dest) (*Client, error) {
	if err := dest.Validate(); err != nil {
		return nil, err
	}
	cfg, err := dest.clientConfig()
	if err != nil {
		return nil, err
	}

	type dialResult struct {
		conn *ssh.Client
		err  error
	}
	resultCh := make(chan dialResult, 1)
	go func() {
		conn, err := ssh.Dial("tcp", dest.Address(), cfg)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return nil, fmt.Errorf("ssh: dial %s: %w", dest.Address(), r.err)
		}
		return &Client{dest: dest, conn: r.conn}, nil
	}
}

// Close releases the underlying connection (and SFTP subsystem, if opened).
func (c *Client) Close() error {
	if c.sftp != nil {
		_ = c.sftp.Close()
	}
	return c.conn.Close()
}

// Run executes cmd on the remote host, optionally under sudo, honoring ctx
// cancellation by closing the session if ctx is done before the command
// completes on its own.
func (c *Client) Run(ctx context.Context, cmd string, sudo bool) (Result, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("ssh: new session: %w", err)
	}
	defer session.Close()

	finalCmd := cmd
	if sudo {
		finalCmd = "sudo " + cmd
	}

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	doneCh := make(chan error, 1)
	go func() { doneCh <- session.Run(finalCmd) }()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return Result{}, ctx.Err()
	case err := <-doneCh:
		exitCode := 0
		if err != nil {
			if exitErr, ok := err.(*ssh.ExitError); ok {
				exitCode = exitErr.ExitStatus()
			} else {
				return Result{Stdout: stdout.String(), Stderr: stderr.String()}, fmt.Errorf("ssh: run %q: %w", cmd, err)
			}
		}
		return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}, nil
	}
}

func (c *Client) sftpClient() (*sftp.Client, error) {
	if c.sftp != nil {
		return c.sftp, nil
	}
	cl, err := sftp.NewClient(c.conn)
	if err != nil {
		return nil, fmt.Errorf("ssh: start sftp subsystem: %w", err)
	}
	c.sftp = cl
	return cl, nil
}

// Upload copies local's contents to remotePath on the remote host.
func (c *Client) Upload(local io.Reader, remotePath string, mode uint32) error {
	cl, err := c.sftpClient()
	if err != nil {
		return err
	}
	remote, err := cl.Create(remotePath)
	if err != nil {
		return fmt.Errorf("ssh: create remote file %s: %w", remotePath, err)
	}
	defer remote.Close()

	if _, err := io.Copy(remote, local); err != nil {
		return fmt.Errorf("ssh: upload to %s: %w", remotePath, err)
	}
	return cl.Chmod(remotePath, fileMode(mode))
}

// Download copies remotePath's contents from the remote host into w.
func (c *Client) Download(remotePath string, w io.Writer) error {
	cl, err := c.sftpClient()
	if err != nil {
		return err
	}
	remote, err := cl.Open(remotePath)
	if err != nil {
		return fmt.Errorf("ssh: open remote file %s: %w", remotePath, err)
	}
	defer remote.Close()

	if _, err := io.Copy(w, remote); err != nil {
		return fmt.Errorf("ssh: download from %s: %w", remotePath, err)
	}
	return nil
}
