package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trafficmix/internal/report"
	"trafficmix/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past runs, or show one run's breakdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("history.path")
		if path == "" {
			var err error
			if path, err = storage.DefaultPath(); err != nil {
				return err
			}
		}
		store, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			item, err := store.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  %s  mix=%s users=%d seed=%d elapsed=%s\n",
				item.ID, item.Timestamp.Format(time.RFC822), item.Mix, item.Users, item.Seed, item.Elapsed.Round(time.Second))
			return report.WriteTable(out, *item)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		items, err := store.List(limit)
		if err != nil {
			return err
		}
		return writeHistory(out, items)
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to list (0 for all)")
}

var errNoHistory = errors.New("no runs recorded yet")

func writeHistory(w io.Writer, items []storage.HistoryItem) error {
	if len(items) == 0 {
		return errNoHistory
	}
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Time", "URL", "Mix", "Users", "Reqs", "Fail", "P99 ms")
	for _, item := range items {
		if err := table.Append(
			item.ID,
			item.Timestamp.Format(time.RFC822),
			item.URL,
			item.Mix,
			fmt.Sprintf("%d", item.Users),
			fmt.Sprintf("%d", item.TotalRequests),
			fmt.Sprintf("%d", item.Fail),
			fmt.Sprintf("%.1f", item.P99Ms),
		); err != nil {
			return err
		}
	}
	return table.Render()
}
