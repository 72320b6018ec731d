package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartRetentionCleaner deletes runs that finished more than retention ago,
// once per interval, until ctx is done.
func StartRetentionCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `DELETE FROM pipeline_runs WHERE finished_at < $1`, cutoff)
				if err != nil {
					if ctx.Err() == nil {
						log.Error("failed to clean expired runs", zap.Error(err))
					}
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned expired runs", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
