package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lk2023060901/perspectize-backend/internal/content/biz"
	"github.com/spf13/cobra"
)

func newIngestCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <url>...",
		Short: "Fetch YouTube metadata and upsert the videos into the catalogue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			outcomes, err := app.Content.Ingest(cmd.Context(), args)
			renderOutcomes(cmd, outcomes)
			if err != nil {
				return fmt.Errorf("ingest aborted: %w", err)
			}

			for _, o := range outcomes {
				if o.Status == biz.StatusError {
					return fmt.Errorf("some urls failed to ingest")
				}
			}
			return nil
		},
	}
}

func renderOutcomes(cmd *cobra.Command, outcomes []biz.IngestOutcome) {
	if len(outcomes) == 0 {
		return
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"URL", "Status", "Video ID", "Name", "Message"})
	counts := map[biz.IngestStatus]int{}
	for _, o := range outcomes {
		if o.Status == "" {
			continue
		}
		counts[o.Status]++
		msg := o.Message
		if o.Hint != "" {
			msg = o.Hint + " (" + o.Message + ")"
		}
		t.AppendRow(table.Row{o.URL, o.Status, o.VideoID, o.Name, msg})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d created, %d updated, %d failed",
		counts[biz.StatusCreated], counts[biz.StatusUpdated], counts[biz.StatusError])})
	t.Render()
}
