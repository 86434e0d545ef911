package resolver

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bindery/internal/library"
	"bindery/internal/logging"
	"bindery/internal/services"
)

// BatchResult summarizes one batch run over the stored entries.
type BatchResult struct {
	RunID     string
	Processed int
	Failed    int
	Skipped   int
}

// ScanAndResolve discovers items beneath the scan root, creates entries for
// new groupings, refreshes the informational file listing on known ones,
// and runs the non-LLM resolution pipeline over every discovery. Per-item
// failures are logged and counted; the walk continues.
func (r *Resolver) ScanAndResolve(ctx context.Context) (BatchResult, error) {
	result := BatchResult{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, result.RunID)
	log := logging.WithContext(ctx, r.logger)

	if r.discover == nil {
		return result, services.Wrap(services.ErrConfiguration, "resolver", "scan", "no directory scanner configured", nil)
	}

	discoveries, err := r.discover.Scan(ctx)
	if err != nil {
		wrapped := services.Wrap(services.ErrTransient, "resolver", "scan", "walk scan root", err)
		if nerr := r.notifier.NotifyError(ctx, wrapped, "scan"); nerr != nil {
			log.Warn("Error notification failed", logging.Error(nerr))
		}
		return result, wrapped
	}
	log.Info("Scan discovered items", logging.Int("items", len(discoveries)))

	for _, discovery := range discoveries {
		if err := r.registerDiscovery(discovery.ID, discovery.PrimaryPath, discovery.AdditionalFiles, discovery.FolderStructure); err != nil {
			result.Failed++
			logging.ErrorWithContext(log, "Failed to register discovered item", "scan_register_failed",
				logging.String(logging.FieldEntryID, discovery.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "item is not tracked this run"))
			continue
		}
		if _, err := r.Resolve(ctx, discovery.ID); err != nil {
			result.Failed++
			logging.ErrorWithContext(log, "Resolution failed for discovered item", "scan_resolve_failed",
				logging.String(logging.FieldEntryID, discovery.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entry keeps its pre-scan metadata"))
			continue
		}
		result.Processed++
	}

	log.Info("Scan complete",
		logging.Int("processed", result.Processed),
		logging.Int("failed", result.Failed))
	if err := r.notifier.NotifyBatchResolved(ctx, result.Processed, result.Failed); err != nil {
		log.Warn("Scan notification failed", logging.Error(err))
	}
	return result, nil
}

// registerDiscovery upserts the on-disk facts for a grouping. Metadata and
// lifecycle fields on existing entries are left alone; only the file
// listing is refreshed.
func (r *Resolver) registerDiscovery(id, primaryPath string, additionalFiles []string, folderStructure string) error {
	if existing, ok := r.store.Get(id); ok {
		existing.PrimaryPath = primaryPath
		existing.AdditionalFiles = additionalFiles
		existing.FolderStructure = folderStructure
		return r.store.Upsert(existing)
	}
	return r.store.Upsert(library.Entry{
		ID:              id,
		PrimaryPath:     primaryPath,
		AdditionalFiles: additionalFiles,
		FolderStructure: folderStructure,
		Status:          library.StatusPending,
		Source:          library.SourceNone,
	})
}

// ResolveAll runs Resolve over every stored entry in stored order. No
// atomicity across entries: a failure is logged and the walk continues.
func (r *Resolver) ResolveAll(ctx context.Context) BatchResult {
	return r.eachEntry(ctx, "resolve_all", func(ctx context.Context, entry library.Entry) (bool, error) {
		_, err := r.Resolve(ctx, entry.ID)
		return false, err
	})
}

// DisambiguateAllMissing runs the LLM over every entry that still has empty
// required fields. Applied entries are skipped: their files have already
// been placed, and re-flagging them risky would advertise a review that
// cannot change the on-disk result. A targeted single-entry Disambiguate
// remains available for those.
func (r *Resolver) DisambiguateAllMissing(ctx context.Context) BatchResult {
	result := r.eachEntry(ctx, "disambiguate_all", func(ctx context.Context, entry library.Entry) (bool, error) {
		if entry.Complete() || entry.Status == library.StatusApplied {
			return true, nil
		}
		_, err := r.Disambiguate(ctx, entry.ID)
		return false, err
	})
	if err := r.notifier.NotifyBatchDisambiguated(ctx, result.Processed, result.Failed, result.Skipped); err != nil {
		r.logger.Warn("Disambiguation notification failed", logging.Error(err))
	}
	return result
}

// ApproveAll approves every entry not already approved or applied.
func (r *Resolver) ApproveAll(ctx context.Context) BatchResult {
	return r.eachEntry(ctx, "approve_all", func(_ context.Context, entry library.Entry) (bool, error) {
		if entry.Status == library.StatusApproved || entry.Status == library.StatusApplied {
			return true, nil
		}
		_, err := r.Approve(entry.ID)
		return false, err
	})
}

// RejectAll rejects every entry not already rejected or applied.
func (r *Resolver) RejectAll(ctx context.Context) BatchResult {
	return r.eachEntry(ctx, "reject_all", func(_ context.Context, entry library.Entry) (bool, error) {
		if entry.Status == library.StatusRejected || entry.Status == library.StatusApplied {
			return true, nil
		}
		_, err := r.Reject(entry.ID)
		return false, err
	})
}

// ApplyAll hands every approved entry to the placement executor. Other
// statuses are skipped; a placement failure on one entry is logged and the
// walk continues.
func (r *Resolver) ApplyAll(ctx context.Context) BatchResult {
	return r.eachEntry(ctx, "apply_all", func(ctx context.Context, entry library.Entry) (bool, error) {
		if entry.Status != library.StatusApproved {
			return true, nil
		}
		_, err := r.Apply(ctx, entry.ID)
		return false, err
	})
}

// eachEntry applies op sequentially to every stored entry under a shared
// batch run id. op reports whether the entry was skipped.
func (r *Resolver) eachEntry(ctx context.Context, name string, op func(context.Context, library.Entry) (bool, error)) BatchResult {
	result := BatchResult{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, result.RunID)
	log := logging.WithContext(ctx, r.logger)

	entries := r.store.All()
	log.Info("Batch started", logging.String("batch", name), logging.Int("entries", len(entries)))

	for _, entry := range entries {
		skipped, err := op(ctx, entry)
		switch {
		case skipped:
			result.Skipped++
		case err != nil:
			result.Failed++
			logging.ErrorWithContext(log, "Batch operation failed for entry", "batch_entry_failed",
				logging.String("batch", name),
				logging.String(logging.FieldEntryID, entry.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "remaining entries still run"))
		default:
			result.Processed++
		}
	}

	log.Info("Batch complete",
		logging.String("batch", name),
		logging.Int("processed", result.Processed),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped))
	if result.Failed > 0 {
		batchErr := fmt.Errorf("%d of %d entries failed", result.Failed, len(entries))
		if nerr := r.notifier.NotifyError(ctx, batchErr, name); nerr != nil {
			log.Warn("Error notification failed", logging.Error(nerr))
		}
	}
	return result
}
