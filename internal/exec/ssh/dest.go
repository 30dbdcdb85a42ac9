// Package ssh is the remote command and file-transfer process driver:
// ProcExec/StepExec/TaskExec dispatch here when a task targets a remote
// host, and ModelProbe opens a Dest to gather facts. Adapted (and
// substantially trimmed) from pkg/transports/ssh — connection pooling,
// jump-host proxying and keep-alive retries are dropped since the engine's
// own driver goroutine already owns the lifetime of one SSH session per
// operation; what is kept is the auth-method config shape, the
// context-racing exec pattern, and golang.org/x/crypto/ssh + pkg/sftp as
// the transport libraries.
package ssh

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// AuthMethod is the kind of SSH authentication a Dest uses.
type AuthMethod string

const (
	AuthMethodPassword AuthMethod = "password"
	AuthMethodKey      AuthMethod = "key"
	AuthMethodAgent    AuthMethod = "agent"
)

// Dest is an SSH connection target — grounded on
// op-exec/src/command/ssh/dest.rs and op-exec/src/command/ssh/config.rs,
// one level simpler than the teacher's Config (no pooling/proxy fields).
type Dest struct {
	Host string
	Port int
	User string

	AuthMethod            AuthMethod
	Password              string
	PrivateKeyPath        string
	PrivateKeyPassphrase  string
	KnownHostsPath        string
	StrictHostKeyChecking bool

	ConnectTimeout time.Duration
}

// Address returns host:port, defaulting the port to 22.
func (d Dest) Address() string {
	port := d.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", d.Host, port)
}

// Validate rejects a Dest missing fields its AuthMethod requires.
func (d Dest) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("ssh: dest missing host")
	}
	if d.User == "" {
		return fmt.Errorf("ssh: dest missing user")
	}
	switch d.AuthMethod {
	case AuthMethodPassword:
		if d.Password == "" {
			return fmt.Errorf("ssh: password auth requires a password")
		}
	case AuthMethodKey:
		if d.PrivateKeyPath == "" {
			return fmt.Errorf("ssh: key auth requires a private key path")
		}
	case AuthMethodAgent:
		// relies on SSH_AUTH_SOCK being present; checked at dial time.
	default:
		return fmt.Errorf("ssh: unknown auth method %q", d.AuthMethod)
	}
	return nil
}

// clientConfig builds the golang.org/x/crypto/ssh.ClientConfig for d.
func (d Dest) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	switch d.AuthMethod {
	case AuthMethodPassword:
		auth = append(auth, ssh.Password(d.Password))
	case AuthMethodKey:
		key, err := os.ReadFile(d.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("ssh: read private key: %w", err)
		}
		var signer ssh.Signer
		if d.PrivateKeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(d.PrivateKeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("ssh: parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	case AuthMethodAgent:
		return nil, fmt.Errorf("ssh: agent auth requires dialing via an external agent connection")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if d.StrictHostKeyChecking && d.KnownHostsPath != "" {
		cb, err := knownhosts.New(d.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("ssh: load known_hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	timeout := d.ConnectTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ssh.ClientConfig{
		User:            d.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}
