package commands

import (
	"github.com/spf13/cobra"

	"github.com/opereon/opereon/internal/ops"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <path>",
		Short: "Create a new versioned workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, "model-init", ops.ModelInitOp{Path: args[0]})
		},
	}
}

func newCommitCommand() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "commit <path>",
		Short: "Commit the current workspace tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, "model-commit", ops.ModelCommitOp{Path: args[0], Message: message})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}
