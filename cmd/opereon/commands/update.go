package commands

import (
	"github.com/spf13/cobra"

	"github.com/opereon/opereon/internal/ops"
)

func newUpdateCommand() *cobra.Command {
	var rev string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "update <path>",
		Short: "Diff against rev and reconcile every matching update proc",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, "model-update", ops.ModelUpdateOp{Path: args[0], Rev: rev, DryRun: dryRun})
		},
	}
	cmd.Flags().StringVar(&rev, "rev", "", "base revision to diff from")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the diff without running any update proc")
	return cmd
}

func newCheckCommand() *cobra.Command {
	var hostFilter string
	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Run every check proc and gate the result through policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, "model-check", ops.ModelCheckOp{Path: args[0], HostFilter: hostFilter})
		},
	}
	cmd.Flags().StringVar(&hostFilter, "host", "", "restrict to hosts matching this selector expression")
	return cmd
}

func newProbeCommand() *cobra.Command {
	var hostFilter string
	cmd := &cobra.Command{
		Use:   "probe <path>",
		Short: "Gather remote facts over SSH from matching hosts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, "model-probe", ops.ModelProbeOp{Path: args[0], HostFilter: hostFilter})
		},
	}
	cmd.Flags().StringVar(&hostFilter, "host", "", "restrict to hosts matching this selector expression")
	return cmd
}
