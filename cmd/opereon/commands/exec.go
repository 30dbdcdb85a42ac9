package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opereon/opereon/internal/ops"
)

func newExecCommand() *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "exec <path> <command>",
		Short: "Select hosts via expr and run command on each",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, command := args[0], args[1]
			ctx := cmd.Context()

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			m, err := ops.LoadManifest(rt.eng, path, "")
			if err != nil {
				return fmt.Errorf("load manifest: %w", err)
			}

			h, err := rt.eng.Enqueue("remote-exec", ops.RemoteExecOp{Manifest: m, Expr: expr, Command: command})
			if err != nil {
				return fmt.Errorf("enqueue remote-exec: %w", err)
			}
			rt.recorder.track(ctx, h.ID(), "remote-exec")

			out, err := h.Wait(ctx)
			rt.recorder.finish(ctx, h.ID(), err)
			if err != nil {
				return fmt.Errorf("remote-exec: %w", err)
			}
			printOutcome(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&expr, "hosts", "", "host selector expression (defaults to every host)")
	return cmd
}
