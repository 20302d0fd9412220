package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lk2023060901/perspectize-backend/internal/content/biz"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/format"
	"github.com/spf13/cobra"
)

func newContentCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect catalogued content",
	}
	cmd.AddCommand(newContentListCommand(opts))
	return cmd
}

func newContentListCommand(opts *options) *cobra.Command {
	var (
		first  int
		after  string
		sortBy string
		order  string
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List content with duration, views and publish date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			page, err := app.Content.List(cmd.Context(), biz.ListParams{
				First:             &first,
				After:             after,
				SortBy:            biz.SortField(sortBy),
				SortOrder:         biz.SortOrder(order),
				Search:            search,
				IncludeTotalCount: true,
			})
			if err != nil {
				return fmt.Errorf("failed to list content: %w", err)
			}

			renderContent(cmd, page)
			return nil
		},
	}

	cmd.Flags().IntVar(&first, "first", 20, "page size")
	cmd.Flags().StringVar(&after, "after", "", "cursor of the previous page")
	cmd.Flags().StringVar(&sortBy, "sort-by", "CREATED_AT", "CREATED_AT, UPDATED_AT or NAME")
	cmd.Flags().StringVar(&order, "order", "DESC", "ASC or DESC")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive name filter")
	return cmd
}

func renderContent(cmd *cobra.Command, page *biz.Page) {
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Name", "Duration", "Views", "Published", "Tags"})
	for _, item := range page.Items {
		stats := item.Stats()
		t.AppendRow(table.Row{
			item.ID,
			format.Truncate(item.Name, 60),
			format.FormatDuration(item.Length, item.LengthUnits),
			format.FormatCount(stats.ViewCount),
			format.FormatPublishDate(stats.PublishedAt),
			format.Truncate(format.FormatTags(stats.Tags), 40),
		})
	}

	footer := fmt.Sprintf("%d shown", len(page.Items))
	if page.TotalCount != nil {
		footer = fmt.Sprintf("%d of %d", len(page.Items), *page.TotalCount)
	}
	if page.HasNextPage {
		footer += ", next: --after " + page.EndCursor
	}
	t.AppendFooter(table.Row{"", footer})
	t.Render()
}
