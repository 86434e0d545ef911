package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bindery/internal/library"
	"bindery/internal/resolver"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var author, title, seriesName, seriesIndex string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an entry's metadata fields",
		Long: `Edit overwrites the named fields with operator-supplied values.
Edited fields lose their LLM-sourced marker: the operator owns the edit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make(map[string]string)
			if cmd.Flags().Changed("author") {
				fields[library.FieldAuthor] = author
			}
			if cmd.Flags().Changed("title") {
				fields[library.FieldTitle] = title
			}
			if cmd.Flags().Changed("series") {
				fields[library.FieldSeries] = seriesName
			}
			if cmd.Flags().Changed("series-index") {
				if seriesIndex != "" && library.NormalizeSeriesIndex(seriesIndex) == "" {
					return fmt.Errorf("series index %q must be a non-negative integer", seriesIndex)
				}
				fields[library.FieldSeriesIndex] = seriesIndex
			}
			if len(fields) == 0 {
				return fmt.Errorf("nothing to edit; pass at least one of --author, --title, --series, --series-index")
			}

			id := strings.TrimSpace(args[0])
			return ctx.withResolver(resolverOptions{}, func(r *resolver.Resolver) error {
				entry, err := r.Edit(id, fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: author=%q title=%q series=%q index=%q\n",
					entry.ID, entry.Author, entry.Title, entry.Series, entry.SeriesIndex)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Author name")
	cmd.Flags().StringVar(&title, "title", "", "Book title")
	cmd.Flags().StringVar(&seriesName, "series", "", "Series name")
	cmd.Flags().StringVar(&seriesIndex, "series-index", "", "Position within the series (non-negative integer)")
	return cmd
}
