package rsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseItemizedSkipsShortLines(t *testing.T) {
	out := "short\n>f+++++++++ file.txt\n"
	entries := parseItemized(out)
	assert.Len(t, entries, 1)
	assert.Equal(t, "file.txt", entries[0].Path)
	assert.Equal(t, ">f+++++++++", entries[0].Change)
}

func TestParamsArgsIncludesDeleteAndChecksum(t *testing.T) {
	p := Params{Source: "./a/", Destination: "host:/b/", Delete: true, Checksum: true}
	args := p.args(false)
	assert.Contains(t, args, "--delete")
	assert.Contains(t, args, "--checksum")
	assert.Equal(t, "./a/", args[len(args)-2])
	assert.Equal(t, "host:/b/", args[len(args)-1])
}

func TestParamsArgsDryRunAddedForCompare(t *testing.T) {
	p := Params{Source: "a", Destination: "b"}
	args := p.args(true)
	assert.Contains(t, args, "--dry-run")
}
