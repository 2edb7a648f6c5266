package accesskit

import (
	"context"
	"log"
	"time"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// AUDIT RETENTION SWEEPER
// ============================================================================

// StartRetentionSweeper runs periodic audit retention cleanup in the
// background until ctx is cancelled. Each sweep deletes records older than
// the configured retention horizon in bounded batches so a large backlog
// never holds a long transaction. interval <= 0 defaults to 24h.
func (s *Service) StartRetentionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.sweepOnce(ctx)
				if err != nil {
					log.Printf("Audit retention sweep failed: %v", err)
					continue
				}
				if deleted > 0 {
					log.Printf("Audit retention sweep removed %d records older than %d days",
						deleted, s.config.RetentionDays)
				}
			}
		}
	}()
}

// sweepOnce deletes expired audit records in batches until none remain or
// the context is cancelled. Returns the total number deleted.
func (s *Service) sweepOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		result, err := s.db.NewDelete().
			Model((*AuditLog)(nil)).
			Where("id IN (SELECT id FROM audit_logs WHERE created_at < ? LIMIT ?)",
				cutoff, s.config.CleanupBatchSize).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "RetentionSweep").Err(); err != nil {
			return total, err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return total, dbkit.WithErr1(err, "RetentionSweep").Err()
		}
		total += rows
		if rows < int64(s.config.CleanupBatchSize) {
			return total, nil
		}
	}
}
