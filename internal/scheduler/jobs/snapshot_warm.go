package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stockscreen/backend/internal/marketdata"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

// SnapshotWarmJob loads the latest screener snapshot so the first request hits the cache
type SnapshotWarmJob struct {
	source marketdata.Source
	logger *logger.Logger
}

// NewSnapshotWarmJob creates a new snapshot warm-up job
func NewSnapshotWarmJob(source marketdata.Source, log *logger.Logger) *SnapshotWarmJob {
	return &SnapshotWarmJob{
		source: source,
		logger: log.WithComponent("snapshot_warm"),
	}
}

// Name returns the job name
func (j *SnapshotWarmJob) Name() string {
	return "snapshot_warm"
}

// Schedule returns the cron schedule (weekdays 06:30, after the vendor load)
func (j *SnapshotWarmJob) Schedule() string {
	return "0 30 6 * * 1-5"
}

// Run reads the snapshot through the source
func (j *SnapshotWarmJob) Run(ctx context.Context) error {
	rows, err := j.source.Rows(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm snapshot: %w", err)
	}

	j.logger.WithField("rows", len(rows)).Info("Snapshot warmed")
	return nil
}
