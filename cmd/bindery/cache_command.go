package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bindery/internal/lookup"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the lookup cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show lookup cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(func(cache *lookup.Cache) error {
				out := cmd.OutOrStdout()
				if cache.Path() == "" {
					fmt.Fprintln(out, "Lookup cache is disabled")
					return nil
				}
				fmt.Fprintf(out, "Cache file:   %s\n", cache.Path())
				fmt.Fprintf(out, "Live records: %d\n", cache.Len())
				return nil
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached lookup result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(func(cache *lookup.Cache) error {
				dropped := cache.Len()
				if err := cache.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached lookups\n", dropped)
				return nil
			})
		},
	})

	return cacheCmd
}
