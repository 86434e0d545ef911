package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bindery/internal/library"
	"bindery/internal/resolver"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "resolve [id]",
		Short: "Run tag and provider resolution for an entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireIDOrAll(args, all); err != nil {
				return err
			}
			return ctx.withResolver(resolverOptions{}, func(r *resolver.Resolver) error {
				out := cmd.OutOrStdout()
				if all {
					result := r.ResolveAll(cmd.Context())
					fmt.Fprintf(out, "Resolved %d entries, %d failed\n", result.Processed, result.Failed)
					return nil
				}
				entry, err := r.Resolve(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				printEntryLine(cmd, entry)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Resolve every tracked entry")
	return cmd
}

func newDisambiguateCommand(ctx *commandContext) *cobra.Command {
	var allMissing bool

	cmd := &cobra.Command{
		Use:   "disambiguate [id]",
		Short: "Escalate an entry to the LLM for last-resort resolution",
		Long: `Disambiguate asks the configured LLM backend to fill the entry's
missing fields. The entry is marked risky for re-review whether or not the
model answers. With --all-missing, every incomplete entry is escalated;
applied entries are skipped because their files have already been placed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireIDOrAll(args, allMissing); err != nil {
				return err
			}
			return ctx.withResolver(resolverOptions{withLLM: true}, func(r *resolver.Resolver) error {
				out := cmd.OutOrStdout()
				if allMissing {
					result := r.DisambiguateAllMissing(cmd.Context())
					fmt.Fprintf(out, "Disambiguated %d entries, %d failed, %d skipped\n",
						result.Processed, result.Failed, result.Skipped)
					return nil
				}
				entry, err := r.Disambiguate(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				printEntryLine(cmd, entry)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&allMissing, "all-missing", false, "Escalate every incomplete, unapplied entry")
	return cmd
}

func newApproveCommand(ctx *commandContext) *cobra.Command {
	return newTransitionCommand(ctx, "approve", "Approved", "Approve an entry for placement",
		func(r *resolver.Resolver, id string) (library.Entry, error) { return r.Approve(id) },
		func(r *resolver.Resolver, cmdCtx context.Context) resolver.BatchResult { return r.ApproveAll(cmdCtx) })
}

func newRejectCommand(ctx *commandContext) *cobra.Command {
	return newTransitionCommand(ctx, "reject", "Rejected", "Reject an entry",
		func(r *resolver.Resolver, id string) (library.Entry, error) { return r.Reject(id) },
		func(r *resolver.Resolver, cmdCtx context.Context) resolver.BatchResult { return r.RejectAll(cmdCtx) })
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "apply [id]",
		Short: "Place an entry's files into the output library",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireIDOrAll(args, all); err != nil {
				return err
			}
			return ctx.withResolver(resolverOptions{}, func(r *resolver.Resolver) error {
				out := cmd.OutOrStdout()
				if all {
					result := r.ApplyAll(cmd.Context())
					fmt.Fprintf(out, "Applied %d entries, %d failed, %d skipped\n",
						result.Processed, result.Failed, result.Skipped)
					return nil
				}
				entry, err := r.Apply(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Applied %s -> %s\n", entry.ID, entry.AppliedPath)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Apply every approved entry")
	return cmd
}

func newTransitionCommand(
	ctx *commandContext,
	verb, pastTense, short string,
	single func(*resolver.Resolver, string) (library.Entry, error),
	batch func(*resolver.Resolver, context.Context) resolver.BatchResult,
) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   verb + " [id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireIDOrAll(args, all); err != nil {
				return err
			}
			return ctx.withResolver(resolverOptions{}, func(r *resolver.Resolver) error {
				out := cmd.OutOrStdout()
				if all {
					result := batch(r, cmd.Context())
					fmt.Fprintf(out, "%s %d entries, %d failed, %d skipped\n",
						pastTense, result.Processed, result.Failed, result.Skipped)
					return nil
				}
				entry, err := single(r, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s is now %s\n", entry.ID, entry.Status)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Apply to every tracked entry")
	return cmd
}

func requireIDOrAll(args []string, all bool) error {
	if all && len(args) > 0 {
		return fmt.Errorf("pass an entry id or the batch flag, not both")
	}
	if !all && len(args) == 0 {
		return fmt.Errorf("an entry id is required (or use the batch flag)")
	}
	return nil
}

func printEntryLine(cmd *cobra.Command, entry library.Entry) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: author=%q title=%q series=%q index=%q source=%s status=%s\n",
		entry.ID, entry.Author, entry.Title, entry.Series, formatIndex(entry.SeriesIndex), entry.Source, entry.Status)
}
