package model

import (
	"fmt"
	"reflect"
)

// ChangeKind classifies one entry-level difference between two manifests.
type ChangeKind string

const (
	ChangeKindAdded   ChangeKind = "added"
	ChangeKindRemoved ChangeKind = "removed"
	ChangeKindUpdated ChangeKind = "updated"
)

// Change is one detected difference, identified by the dotted path of the
// entry it concerns (e.g. "hosts.db1", "procs.deploy").
type Change struct {
	Path string
	Kind ChangeKind
}

// Diff structurally compares two manifest revisions and reports every
// added, removed or updated host, user and proc — the payload of a Diff
// outcome. Field-level diffing is intentionally shallow (whole-entry
// equality), matching the distilled spec's "Diff(data)" outcome being an
// opaque payload rather than a prescribed diff algorithm.
func Diff(before, after *Manifest) []Change {
	var changes []Change

	changes = append(changes, diffHosts(before.Hosts, after.Hosts)...)
	changes = append(changes, diffUsers(before.Users, after.Users)...)
	changes = append(changes, diffProcs(before.Procs, after.Procs)...)

	return changes
}

func diffHosts(before, after map[string]Host) []Change {
	var changes []Change
	for name := range before {
		if _, ok := after[name]; !ok {
			changes = append(changes, Change{Path: fmt.Sprintf("hosts.%s", name), Kind: ChangeKindRemoved})
		}
	}
	for name, a := range after {
		b, ok := before[name]
		if !ok {
			changes = append(changes, Change{Path: fmt.Sprintf("hosts.%s", name), Kind: ChangeKindAdded})
		} else if !hostsEqual(b, a) {
			changes = append(changes, Change{Path: fmt.Sprintf("hosts.%s", name), Kind: ChangeKindUpdated})
		}
	}
	return changes
}

func hostsEqual(a, b Host) bool {
	if a.Hostname != b.Hostname || a.SSHDest != b.SSHDest || a.RunnerAddr != b.RunnerAddr {
		return false
	}
	if len(a.Labels) != len(b.Labels) {
		return false
	}
	for k, v := range a.Labels {
		if b.Labels[k] != v {
			return false
		}
	}
	return true
}

func diffUsers(before, after map[string]User) []Change {
	var changes []Change
	for name := range before {
		if _, ok := after[name]; !ok {
			changes = append(changes, Change{Path: fmt.Sprintf("users.%s", name), Kind: ChangeKindRemoved})
		}
	}
	for name, a := range after {
		b, ok := before[name]
		if !ok {
			changes = append(changes, Change{Path: fmt.Sprintf("users.%s", name), Kind: ChangeKindAdded})
		} else if b != a {
			changes = append(changes, Change{Path: fmt.Sprintf("users.%s", name), Kind: ChangeKindUpdated})
		}
	}
	return changes
}

func diffProcs(before, after map[string]Proc) []Change {
	var changes []Change
	for name := range before {
		if _, ok := after[name]; !ok {
			changes = append(changes, Change{Path: fmt.Sprintf("procs.%s", name), Kind: ChangeKindRemoved})
		}
	}
	for name, a := range after {
		b, ok := before[name]
		if !ok {
			changes = append(changes, Change{Path: fmt.Sprintf("procs.%s", name), Kind: ChangeKindAdded})
		} else if !procsEqual(b, a) {
			changes = append(changes, Change{Path: fmt.Sprintf("procs.%s", name), Kind: ChangeKindUpdated})
		}
	}
	return changes
}

func procsEqual(a, b Proc) bool {
	return reflect.DeepEqual(a, b)
}
