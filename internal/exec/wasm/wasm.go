// Package wasm is a process driver that runs a WASI-compiled task body
// inside a wazero sandbox instead of the local shell or an SSH session —
// the portable, untrusted-code-safe alternative SPEC_FULL.md §12 calls for.
// Grounded on the same "driver selection by destination" idiom as
// internal/exec/local and internal/exec/ssh: Run takes a module and argv
// and returns captured stdout/stderr/exit code in the same Result shape.
package wasm

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Result is the outcome of running one WASM module to completion.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run compiles and instantiates moduleBytes in a fresh wazero runtime,
// wires WASI, runs it with args as argv, and captures its stdio.
func Run(ctx context.Context, moduleBytes []byte, args []string) (Result, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	defer rt.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return Result{}, fmt.Errorf("wasm: instantiate wasi: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, moduleBytes)
	if err != nil {
		return Result{}, fmt.Errorf("wasm: compile module: %w", err)
	}
	if _, ok := compiled.ExportedFunctions()["_start"]; !ok {
		return Result{}, fmt.Errorf("wasm: module exports no _start function")
	}

	var stdout, stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithArgs(append([]string{"task"}, args...)...).
		WithStdout(&stdout).
		WithStderr(&stderr)

	_, err = rt.InstantiateModule(ctx, compiled, modCfg)
	exitCode := 0
	if err != nil {
		if code, ok := exitCodeOf(err); ok {
			exitCode = code
		} else {
			return Result{Stdout: stdout.String(), Stderr: stderr.String()}, fmt.Errorf("wasm: run module: %w", err)
		}
	}

	return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}, nil
}
