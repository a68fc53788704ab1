package cmd

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"trafficmix/internal/scenario"
)

var mixesCmd = &cobra.Command{
	Use:   "mixes [file]",
	Short: "Show the built-in traffic mixes, or a custom mix file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			m, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}
			return writeMix(cmd.OutOrStdout(), m)
		}
		for _, name := range scenario.Names() {
			m, err := scenario.Lookup(name)
			if err != nil {
				return err
			}
			if err := writeMix(cmd.OutOrStdout(), m); err != nil {
				return err
			}
		}
		return nil
	},
}

func writeMix(w io.Writer, m scenario.Mix) error {
	fmt.Fprintf(w, "\n%s: %s (wait %s, total weight %d)\n", m.Name, m.Description, m.Pacing, m.TotalWeight())

	table := tablewriter.NewWriter(w)
	table.Header("Task", "Path", "Weight", "Share")
	for _, t := range m.Tasks {
		if err := table.Append(t.Name, t.Path, fmt.Sprintf("%d", t.Weight), fmt.Sprintf("%.2f%%", m.Share(t.Name)*100)); err != nil {
			return err
		}
	}
	return table.Render()
}
