package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/opereon/opereon/internal/stores"
)

// newHistoryCommand lists past operations from the audit store, or a single
// operation's event log when given an id — the read side of the
// CreateOperation/AppendEvent trail runOp's auditRecorder writes.
func newHistoryCommand() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history [operation-id]",
		Short: "Show recorded operation runs, or one run's event log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := stores.Open(ctx, stores.Config{Path: storePath})
			if err != nil {
				return fmt.Errorf("open audit store: %w", err)
			}
			defer store.Close()

			if len(args) == 1 {
				events, err := store.ListEvents(ctx, args[0])
				if err != nil {
					return err
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetStyle(table.StyleRounded)
				tw.AppendHeader(table.Row{"time", "level", "message"})
				for _, ev := range events {
					tw.AppendRow(table.Row{ev.CreatedAt.Format("15:04:05"), ev.Level, ev.Message})
				}
				tw.Render()
				return nil
			}

			ops, err := store.ListOperations(ctx, limit, offset)
			if err != nil {
				return err
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"id", "name", "status", "started", "error"})
			for _, op := range ops {
				errMsg := ""
				if op.Error != nil {
					errMsg = *op.Error
				}
				tw.AppendRow(table.Row{op.ID, op.Name, op.Status, op.StartedAt.Format("2006-01-02 15:04:05"), errMsg})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum operations to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	return cmd
}
