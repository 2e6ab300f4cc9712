package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NotePurger is the subset of store.Store needed by the trash purge job.
// Defined here to avoid a dependency on the store package.
type NotePurger interface {
	PurgeDeletedNotes(ctx context.Context, retention time.Duration) (int64, error)
}

// TrashPurgeJob permanently removes notes that have been in the trash
// longer than Retention.
type TrashPurgeJob struct {
	Store        NotePurger
	Retention    time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 3 * * *"
}

// Compile-time interface check.
var _ Job = (*TrashPurgeJob)(nil)

// Name implements Job.
func (j *TrashPurgeJob) Name() string { return "trash_purge" }

// Schedule implements Job.
func (j *TrashPurgeJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 3 * * *"
}

// Run deletes trashed notes older than the retention window.
func (j *TrashPurgeJob) Run(ctx context.Context) error {
	purged, err := j.Store.PurgeDeletedNotes(ctx, j.Retention)
	if err != nil {
		return fmt.Errorf("cron: purging trash: %w", err)
	}
	if purged > 0 {
		j.Logger.Info("cron: purged trashed notes", "count", purged, "retention", j.Retention)
	}
	return nil
}
