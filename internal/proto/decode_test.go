package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeJSONRoundTripsFlatVariant(t *testing.T) {
	req := ModelQuery{Path: "/ws", Rev: "HEAD", Expr: "hosts"}

	data, err := EncodeJSON(req)
	require.NoError(t, err)

	decoded, err := DecodeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestEncodeDecodeJSONRoundTripsNestedCombinator(t *testing.T) {
	req := Sequence{Children: []Request{
		TaskExec{Path: "/ws", Proc: "deploy", Step: 0, Task: 0},
		Parallel{Children: []Request{
			TaskExec{Path: "/ws", Proc: "deploy", Step: 1, Task: 0},
			TaskExec{Path: "/ws", Proc: "deploy", Step: 1, Task: 1},
		}},
	}}

	data, err := EncodeJSON(req)
	require.NoError(t, err)

	decoded, err := DecodeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestDecodeJSONRejectsUnknownKind(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"kind":"nonsense"}`))
	assert.Error(t, err)
}

func TestDecodeYAMLMatchesJSONSemantics(t *testing.T) {
	yamlSrc := []byte("kind: model_init\npath: /ws\n")
	req, err := DecodeYAML(yamlSrc)
	require.NoError(t, err)
	assert.Equal(t, ModelInit{Path: "/ws"}, req)
}

func TestKindMatchesEveryVariant(t *testing.T) {
	variants := []Request{
		ConfigGet{}, ModelInit{}, ModelCommit{}, ModelQuery{}, ModelTest{},
		ModelDiff{}, ModelUpdate{}, ModelCheck{}, ModelProbe{}, ProcExec{},
		StepExec{}, TaskExec{}, FileCopyExec{}, RemoteExec{}, Sequence{}, Parallel{},
	}
	assert.Len(t, variants, 16)

	seen := make(map[string]bool)
	for _, v := range variants {
		assert.False(t, seen[v.Kind()], "duplicate kind %q", v.Kind())
		seen[v.Kind()] = true
	}
}
