package wasm

import "github.com/tetratelabs/wazero/sys"

// exitCodeOf unwraps a wazero sys.ExitError (the error WASI's proc_exit
// surfaces as) into its process exit code.
func exitCodeOf(err error) (int, bool) {
	exitErr, ok := err.(*sys.ExitError)
	if !ok {
		return 0, false
	}
	return int(exitErr.ExitCode()), true
}
