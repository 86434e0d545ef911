package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bindery/internal/library"
	"bindery/internal/resolver"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full record for one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withResolver(resolverOptions{}, func(r *resolver.Resolver) error {
				entry, ok := r.Entry(id)
				if !ok {
					return fmt.Errorf("entry %q not found; run `bindery list` for known ids", id)
				}
				_, flagged := r.Entries()

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				labels := map[string]string{
					library.FieldAuthor:      "Author",
					library.FieldTitle:       "Title",
					library.FieldSeries:      "Series",
					library.FieldSeriesIndex: "Series index",
				}
				fmt.Fprintf(out, "ID:           %s\n", entry.ID)
				for _, name := range library.FieldNames() {
					value := fieldCell(entry, name)
					if value == "" {
						value = "-"
					}
					fmt.Fprintf(out, "%-13s %s\n", labels[name]+":", value)
				}
				fmt.Fprintf(out, "Source:       %s\n", entry.Source)
				fmt.Fprintf(out, "Status:       %s\n", statusCell(entry, flagged, colorize))
				fmt.Fprintf(out, "Primary file: %s\n", entry.PrimaryPath)
				if len(entry.AdditionalFiles) > 0 {
					fmt.Fprintf(out, "Additional:   %s\n", strings.Join(entry.AdditionalFiles, ", "))
				}
				if entry.AppliedPath != "" {
					fmt.Fprintf(out, "Applied to:   %s\n", entry.AppliedPath)
				}
				if len(entry.LLMFields) > 0 {
					fmt.Fprintf(out, "LLM fields:   %s (unverified)\n", strings.Join(entry.LLMFields, ", "))
				}
				if entry.FolderStructure != "" {
					fmt.Fprintln(out, "Folder structure:")
					for _, line := range strings.Split(entry.FolderStructure, "\n") {
						fmt.Fprintf(out, "  %s\n", line)
					}
				}
				return nil
			})
		},
	}
}
