package commands

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/opereon/opereon/internal/ops"
)

// newDevCommand watches path for filesystem changes and re-runs
// ModelTest (and, with --update, ModelUpdate) on every change — the
// "workspace re-resolution on file change" concern fsnotify/fsnotify
// fills. Adapted from the teacher's dev command idiom (cmd/froyo's `dev`
// subcommand also loops until Ctrl-C), swapped to drive opereon's own
// manifest-validate/reconcile operations instead of froyo's build step.
func newDevCommand() *cobra.Command {
	var update bool
	cmd := &cobra.Command{
		Use:   "dev <path>",
		Short: "Watch a workspace and re-validate (or reconcile) it on every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctx := cmd.Context()

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}

			runOnce := func() {
				handle, err := rt.eng.Enqueue("model-test", ops.ModelTestOp{Path: path})
				if err != nil {
					tel.Logger.WithError(err).Error("dev: enqueue failed")
					return
				}
				rt.recorder.track(ctx, handle.ID(), "model-test")
				out, err := handle.Wait(ctx)
				rt.recorder.finish(ctx, handle.ID(), err)
				if err != nil {
					tel.Logger.WithError(err).Error("dev: validation failed")
					return
				}
				if update {
					uh, err := rt.eng.Enqueue("model-update", ops.ModelUpdateOp{Path: path})
					if err != nil {
						tel.Logger.WithError(err).Error("dev: enqueue update failed")
						return
					}
					rt.recorder.track(ctx, uh.ID(), "model-update")
					uout, err := uh.Wait(ctx)
					rt.recorder.finish(ctx, uh.ID(), err)
					if err != nil {
						tel.Logger.WithError(err).Error("dev: update failed")
						return
					}
					printOutcome(uout)
					return
				}
				printOutcome(out)
			}

			tel.Logger.WithField("path", path).Info("dev: watching for changes")
			runOnce()
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
						continue
					}
					tel.Logger.WithField("file", event.Name).Info("dev: change detected")
					runOnce()
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					tel.Logger.WithError(err).Error("dev: watcher error")
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		},
	}
	cmd.Flags().BoolVar(&update, "update", false, "reconcile update procs instead of just validating")
	return cmd
}
