package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// GitBackend is the Backend implementation driving the system git binary.
// Grounded on original_source/op-model/src/git.rs's GitManager, which wraps
// a single repository directory and lazily opens it; the Go version shells
// out per call instead of holding an open libgit2 handle, since there is no
// git2 binding in the dependency survey to hold open.
type GitBackend struct {
	// Timeout bounds every git invocation; zero means no timeout.
	Timeout time.Duration
}

// NewGitBackend returns a GitBackend with a sensible default command timeout.
func NewGitBackend() *GitBackend {
	return &GitBackend{Timeout: 30 * time.Second}
}

func (b *GitBackend) run(dir string, args ...string) (string, string, error) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if b.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("vcs: git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), stderr.String(), nil
}

// Init creates path if needed and initializes a git repository in it.
func (b *GitBackend) Init(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("vcs: create workspace dir: %w", err)
	}
	_, _, err := b.run(path, "init")
	return err
}

// Checkout resolves rev and checks out the working tree to it. Current
// leaves the working tree untouched and just resolves HEAD.
func (b *GitBackend) Checkout(path string, rev RevPath) (Metadata, error) {
	if rev.Kind == RevPathRevision {
		if _, _, err := b.run(path, "checkout", rev.Revision); err != nil {
			return Metadata{}, err
		}
	}
	return b.headMetadata(path)
}

// Commit stages every change in the working tree and commits it.
func (b *GitBackend) Commit(path string, message string) (Metadata, error) {
	if _, _, err := b.run(path, "add", "-A"); err != nil {
		return Metadata{}, err
	}
	if _, stderr, err := b.run(path, "commit", "-m", message); err != nil {
		if strings.Contains(stderr, "nothing to commit") {
			return b.headMetadata(path)
		}
		return Metadata{}, err
	}
	return b.headMetadata(path)
}

// ReadFile returns file's contents as of rev (or the working tree, for Current).
func (b *GitBackend) ReadFile(path string, rev RevPath, file string) ([]byte, error) {
	if rev.Kind == RevPathCurrent {
		data, err := os.ReadFile(filepath.Join(path, file))
		if err != nil {
			return nil, fmt.Errorf("vcs: read %s: %w", file, err)
		}
		return data, nil
	}

	stdout, _, err := b.run(path, "show", fmt.Sprintf("%s:%s", rev.Revision, file))
	if err != nil {
		return nil, err
	}
	return []byte(stdout), nil
}

// Diff returns a unified diff between two revisions.
func (b *GitBackend) Diff(path string, before, after RevPath) (string, error) {
	args := []string{"diff"}
	if before.Kind == RevPathRevision {
		args = append(args, before.Revision)
	}
	if after.Kind == RevPathRevision {
		args = append(args, after.Revision)
	}
	stdout, _, err := b.run(path, args...)
	if err != nil {
		return "", err
	}
	return stdout, nil
}

func (b *GitBackend) headMetadata(path string) (Metadata, error) {
	sha, _, err := b.run(path, "rev-parse", "HEAD")
	if err != nil {
		return Metadata{}, errors.Join(ErrNotARepository, err)
	}
	msg, _, err := b.run(path, "log", "-1", "--pretty=%B")
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{Revision: strings.TrimSpace(sha), Message: strings.TrimSpace(msg)}, nil
}
