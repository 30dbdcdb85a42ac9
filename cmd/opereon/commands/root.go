// Package commands wires the opereon CLI: cobra subcommands for a subset
// of the proto.Request variants (init, commit, query, test, diff, update,
// check, probe, exec) plus dev and history, adapted from cmd/froyo/commands' root/subcommand
// split into a single engine-backed front end.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opereon/opereon/internal/config"
	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/ops"
	"github.com/opereon/opereon/internal/policy"
	"github.com/opereon/opereon/internal/stores"
	"github.com/opereon/opereon/internal/telemetry"
	"github.com/opereon/opereon/internal/vcs"
)

var (
	configPath string
	storePath  string
	jsonOutput bool
	streamAddr string

	// tel is the process-wide Telemetry instance main built at startup; set
	// once by Execute and placed into every engine's service registry, so
	// every OperationImpl hook can reach it via
	// engine.ServiceFor[*telemetry.Telemetry] instead of a package global.
	tel *telemetry.Telemetry
)

// Execute runs the root command, instrumented by tel for the lifetime of
// the process.
func Execute(ctx context.Context, version, commit, buildDate string, t *telemetry.Telemetry) error {
	tel = t
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "opereon",
		Short: "Opereon - asynchronous operation engine for infrastructure automation",
		Long: `Opereon runs declarative host/proc/step/task manifests through a
cooperative, cancellable operation engine: query and diff a versioned
model, run procedures locally or over SSH, and gate updates through policy.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "bootstrap config file (CUE)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "opereon.db", "sqlite audit store path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&streamAddr, "stream", "", "serve operation progress over websocket at this address (e.g. :8090)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCommitCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newTestCommand())
	rootCmd.AddCommand(newDiffCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newProbeCommand())
	rootCmd.AddCommand(newExecCommand())
	rootCmd.AddCommand(newDevCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// runtime bundles the engine, audit store and audit recorder a single CLI
// invocation needs; Close releases the store's connection.
type runtime struct {
	eng      *engine.Engine[ops.Outcome]
	store    *stores.Store
	recorder *auditRecorder
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg := config.Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		loader, err := config.NewLoader()
		if err != nil {
			return nil, fmt.Errorf("compile config schema: %w", err)
		}
		cfg, err = loader.Load(data)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	store, err := stores.Open(ctx, stores.Config{Path: storePath})
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}

	policyEngine := policy.NewEngine(tel.Logger.Zerolog())

	services := []any{cfg, &vcs.Registered{Backend: vcs.NewGitBackend()}, policyEngine, store, tel}
	eng := engine.New[ops.Outcome](services, nil)
	go eng.Start()

	recorder := newAuditRecorder(store)
	eng.RegisterProgressCallback(recorder.onSnapshot)

	if streamAddr != "" {
		newStreamServer().serve(streamAddr, eng)
	}

	return &runtime{eng: eng, store: store, recorder: recorder}, nil
}

func (r *runtime) Close() {
	r.eng.Stop()
	_ = r.store.Close()
}

// runOp enqueues impl, waits for its outcome and prints it, recording the
// run's lifecycle (creation, progress events, terminal status) in the audit
// store via rt.recorder.
func runOp(cmd *cobra.Command, name string, impl engine.OperationImpl[ops.Outcome]) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	h, err := rt.eng.Enqueue(name, impl)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", name, err)
	}
	rt.recorder.track(ctx, h.ID(), name)

	out, waitErr := h.Wait(ctx)
	rt.recorder.finish(ctx, h.ID(), waitErr)
	if waitErr != nil {
		return fmt.Errorf("%s: %w", name, waitErr)
	}

	printOutcome(out)
	return nil
}
