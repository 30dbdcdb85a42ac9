package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/opereon/opereon/internal/ops"
)

// printOutcome renders an ops.Outcome either as JSON (--json) or as a
// go-pretty table keyed to its OutcomeKind, the same table.NewWriter idiom
// the example pack's report formatter uses for tabular CLI output.
func printOutcome(out ops.Outcome) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	switch out.Kind {
	case ops.OutcomeEmpty:
		fmt.Println("ok")
	case ops.OutcomeNodeSet:
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"#", "value"})
		for i, v := range out.NodeSet {
			tw.AppendRow(table.Row{i, fmt.Sprintf("%v", v)})
		}
		tw.Render()
	case ops.OutcomeDiff:
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"path", "change"})
		for _, d := range out.Diff {
			tw.AppendRow(table.Row{d.Path, d.Kind})
		}
		tw.Render()
	case ops.OutcomeFile:
		fmt.Println(out.File)
	case ops.OutcomeCommand:
		fmt.Print(out.Command.Stdout)
		if out.Command.Stderr != "" {
			fmt.Fprint(os.Stderr, out.Command.Stderr)
		}
		if out.Command.ExitCode != 0 {
			os.Exit(out.Command.ExitCode)
		}
	case ops.OutcomeMany:
		for _, inner := range out.Many {
			printOutcome(inner)
		}
	}
}
