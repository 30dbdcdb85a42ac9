package commands

import (
	"github.com/spf13/cobra"

	"github.com/opereon/opereon/internal/ops"
)

func newQueryCommand() *cobra.Command {
	var rev string
	cmd := &cobra.Command{
		Use:   "query <path> <expr>",
		Short: "Evaluate a path expression against the model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, "model-query", ops.ModelQueryOp{Path: args[0], Rev: rev, Expr: args[1]})
		},
	}
	cmd.Flags().StringVar(&rev, "rev", "", "model revision (defaults to the working tree)")
	return cmd
}

func newTestCommand() *cobra.Command {
	var rev string
	cmd := &cobra.Command{
		Use:   "test <path>",
		Short: "Validate the model against its structural invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, "model-test", ops.ModelTestOp{Path: args[0], Rev: rev})
		},
	}
	cmd.Flags().StringVar(&rev, "rev", "", "model revision (defaults to the working tree)")
	return cmd
}

func newDiffCommand() *cobra.Command {
	var before, after string
	cmd := &cobra.Command{
		Use:   "diff <path>",
		Short: "Diff two model revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, "model-diff", ops.ModelDiffOp{Path: args[0], Before: before, After: after})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "base revision")
	cmd.Flags().StringVar(&after, "after", "", "target revision (defaults to the working tree)")
	return cmd
}
