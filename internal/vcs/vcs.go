// Package vcs addresses and manipulates workspace revisions backed by git.
// Grounded on original_source/op-model/src/ver/mod.rs's ModelPath enum and
// FileVersionManager trait: RevPath is the Go rendering of ModelPath
// (current working tree vs. a git revision string), and Backend is the Go
// rendering of FileVersionManager (init/checkout/commit/read). The pack
// carries no git-binding library (no go-git, no git2 cgo binding anywhere
// in the survey), so Backend shells out to the system `git` binary via
// os/exec — the same "drive an external binary" idiom the teacher uses in
// pkg/transports/ssh for remote commands, applied locally here.
package vcs

import "fmt"

// RevPathKind distinguishes "current working tree" from "a specific git
// revision", mirroring ModelPath::{Current,Revision}.
type RevPathKind string

const (
	RevPathCurrent  RevPathKind = "current"
	RevPathRevision RevPathKind = "revision"
)

// RevPath selects which version of a workspace model to operate on — the
// "revision-or-path selector" SPEC_FULL.md §12 calls out.
type RevPath struct {
	Kind     RevPathKind
	Revision string // populated only when Kind == RevPathRevision; any string git-rev-parse(1) accepts
}

// Current selects the working tree as-is, uncommitted changes included.
func Current() RevPath { return RevPath{Kind: RevPathCurrent} }

// Revision selects a specific git revision (branch, tag, sha, or any
// git-rev-parse(1) expression).
func Revision(rev string) RevPath { return RevPath{Kind: RevPathRevision, Revision: rev} }

func (p RevPath) String() string {
	if p.Kind == RevPathCurrent {
		return "current"
	}
	return p.Revision
}

// Metadata describes the commit a checkout or commit operation resolved to.
type Metadata struct {
	Revision string
	Message  string
}

// Backend is the version-control operations a workspace needs: init a new
// repository, check out a revision, commit the working tree, read a file
// as of a revision, and diff two revisions. Mirrors FileVersionManager's
// four methods, plus Diff.
type Backend interface {
	Init(path string) error
	Checkout(path string, rev RevPath) (Metadata, error)
	Commit(path string, message string) (Metadata, error)
	ReadFile(path string, rev RevPath, file string) ([]byte, error)
	Diff(path string, before, after RevPath) (string, error)
}

// ErrNotARepository is joined into the error Checkout and Commit return
// when HEAD cannot be resolved at path (not initialized via Init, or not a
// git repository at all). ReadFile and Diff do not return it.
var ErrNotARepository = fmt.Errorf("vcs: not a git repository")

// Registered boxes a Backend behind a concrete type so it can be used as an
// engine.Registry service: the registry keys services by concrete dynamic
// type (see internal/engine/registry.go), which an interface value cannot
// satisfy on its own — engine.ServiceFor[*vcs.Registered] resolves it, and
// Registered's embedded Backend promotes every method so callers use it
// exactly like a Backend.
type Registered struct {
	Backend
}
