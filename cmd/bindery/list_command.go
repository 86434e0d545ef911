package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bindery/internal/library"
	"bindery/internal/resolver"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked entries and their review status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter library.Status
			if statusFilter != "" {
				parsed, err := library.ParseStatus(statusFilter)
				if err != nil {
					return err
				}
				filter = parsed
			}

			return ctx.withResolver(resolverOptions{}, func(r *resolver.Resolver) error {
				entries, flagged := r.Entries()
				if filter != "" {
					filtered := entries[:0]
					for _, entry := range entries {
						if library.DisplayStatus(entry, flagged) == filter {
							filtered = append(filtered, entry)
						}
					}
					entries = filtered
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No entries to show. Run `bindery scan` first.")
					return nil
				}
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderTable(entryTableHeaders, buildEntryRows(entries, flagged, colorize), entryTableAligns))
				fmt.Fprintln(out, "Fields marked * were filled by the LLM and are unverified.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show entries with this display status")
	return cmd
}
