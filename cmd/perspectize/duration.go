package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lk2023060901/perspectize-backend/internal/content/biz"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/format"
	"github.com/lk2023060901/perspectize-backend/internal/youtube"
	"github.com/spf13/cobra"
)

func newDurationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "duration <iso8601>...",
		Short: "Convert ISO-8601 durations to seconds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Input", "Seconds", "Display"})

			invalid := 0
			units := biz.LengthUnitsSeconds
			for _, in := range args {
				seconds, err := youtube.ParseDuration(in)
				if err != nil {
					invalid++
					t.AppendRow(table.Row{in, "-", err.Error()})
					continue
				}
				t.AppendRow(table.Row{in, seconds, format.FormatDuration(&seconds, &units)})
			}
			t.Render()

			if invalid > 0 {
				return fmt.Errorf("%d of %d durations are invalid", invalid, len(args))
			}
			return nil
		},
	}
}
