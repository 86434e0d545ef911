package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bindery/internal/resolver"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Discover audiobooks in the inbox and resolve their metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withResolver(resolverOptions{}, func(r *resolver.Resolver) error {
				result, err := r.ScanAndResolve(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned: %d resolved, %d failed\n", result.Processed, result.Failed)

				entries, flagged := r.Entries()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No entries tracked. Is the inbox empty?")
					return nil
				}
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderTable(entryTableHeaders, buildEntryRows(entries, flagged, colorize), entryTableAligns))
				return nil
			})
		},
	}
}
