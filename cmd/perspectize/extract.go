package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lk2023060901/perspectize-backend/internal/youtube"
	"github.com/spf13/cobra"
)

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>...",
		Short: "Print the YouTube video id of each URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"URL", "Video ID", "Watch URL"})

			missing := 0
			for _, raw := range args {
				id, ok := youtube.ExtractVideoID(raw)
				if !ok {
					missing++
					t.AppendRow(table.Row{raw, "-", "-"})
					continue
				}
				t.AppendRow(table.Row{raw, id, youtube.WatchURL(id)})
			}
			t.Render()

			if missing > 0 {
				return fmt.Errorf("%d of %d urls have no video id", missing, len(args))
			}
			return nil
		},
	}
}
