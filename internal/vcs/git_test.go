package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func newRepo(t *testing.T) (*GitBackend, string) {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	b := NewGitBackend()
	require.NoError(t, b.Init(dir))

	// Commit identity is required for `git commit` in CI sandboxes with no
	// global config.
	cmd := exec.Command("git", "config", "user.email", "test@example.com")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
	cmd = exec.Command("git", "config", "user.name", "Test")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	return b, dir
}

func TestInitCreatesRepository(t *testing.T) {
	b, dir := newRepo(t)
	_, err := os.Stat(filepath.Join(dir, ".git"))
	assert.NoError(t, err)
	_ = b
}

func TestCommitAndReadFile(t *testing.T) {
	b, dir := newRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("hosts: {}\n"), 0o644))

	meta, err := b.Commit(dir, "initial manifest")
	require.NoError(t, err)
	assert.NotEmpty(t, meta.Revision)
	assert.Equal(t, "initial manifest", meta.Message)

	data, err := b.ReadFile(dir, Current(), "manifest.yaml")
	require.NoError(t, err)
	assert.Equal(t, "hosts: {}\n", string(data))

	data, err = b.ReadFile(dir, Revision(meta.Revision), "manifest.yaml")
	require.NoError(t, err)
	assert.Equal(t, "hosts: {}\n", string(data))
}

func TestDiffBetweenRevisions(t *testing.T) {
	b, dir := newRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("hosts: {}\n"), 0o644))
	first, err := b.Commit(dir, "first")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("hosts:\n  db1: {}\n"), 0o644))
	second, err := b.Commit(dir, "second")
	require.NoError(t, err)

	diff, err := b.Diff(dir, Revision(first.Revision), Revision(second.Revision))
	require.NoError(t, err)
	assert.Contains(t, diff, "db1")
}

func TestReadFileOfUnknownRevisionErrors(t *testing.T) {
	b, dir := newRepo(t)
	_, err := b.ReadFile(dir, Revision("deadbeef"), "manifest.yaml")
	assert.Error(t, err)
}
