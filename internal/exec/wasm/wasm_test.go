package wasm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opereon/opereon/internal/exec/wasm"
)

// emptyModule is the minimal valid WASM binary: just the magic number and
// version, no sections at all — it compiles but exports nothing, so Run
// rejects it for lacking a "_start" export. Good enough to exercise Run's
// error paths without shipping a prebuilt task binary into the tree.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestRunRejectsMalformedModule(t *testing.T) {
	_, err := wasm.Run(context.Background(), []byte("not a wasm module"), nil)
	require.Error(t, err)
}

func TestRunRejectsModuleWithoutStart(t *testing.T) {
	_, err := wasm.Run(context.Background(), emptyModule, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wasm:")
}
