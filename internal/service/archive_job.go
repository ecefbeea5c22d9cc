package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// archiveLockKey serialises archive runs across instances.
const archiveLockKey = "archive:listings"

// ArchiveJob exports listings older than the retention window to cold
// storage. Listings are copied, never removed.
type ArchiveJob struct {
	archiver      domain.Archiver
	locks         domain.LockManager
	retentionDays int
	lockTTL       time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// NewArchiveJob creates an ArchiveJob. locks may be nil on a single node.
func NewArchiveJob(archiver domain.Archiver, locks domain.LockManager, retentionDays int, logger *slog.Logger) *ArchiveJob {
	return &ArchiveJob{
		archiver:      archiver,
		locks:         locks,
		retentionDays: retentionDays,
		lockTTL:       30 * time.Minute,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger.With(slog.String("component", "archive_job")),
	}
}

// Run executes one export. When another instance holds the lock the run is
// skipped and Run returns nil.
func (j *ArchiveJob) Run(ctx context.Context) error {
	if j.locks != nil {
		release, err := j.locks.Acquire(ctx, archiveLockKey, j.lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				j.logger.InfoContext(ctx, "archive run skipped, another instance holds the lock")
				return nil
			}
			return fmt.Errorf("archive_job: acquire lock: %w", err)
		}
		defer release()
	}

	cutoff := j.now().AddDate(0, 0, -j.retentionDays)
	j.logger.InfoContext(ctx, "starting archive run",
		slog.Int("retention_days", j.retentionDays),
		slog.Time("cutoff", cutoff),
	)

	n, err := j.archiver.ArchiveListings(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive_job: archive listings: %w", err)
	}

	j.logger.InfoContext(ctx, "archive run complete", slog.Int64("listings_archived", n))
	return nil
}

// RunEvery runs the job immediately and then on every tick of interval
// until ctx is cancelled. A failed run is logged and retried next tick.
func (j *ArchiveJob) RunEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := j.Run(ctx); err != nil {
			j.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
