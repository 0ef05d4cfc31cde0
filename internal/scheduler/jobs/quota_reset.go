package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stockscreen/backend/internal/quota"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

// DefaultQuotaResetSchedule is midnight on the first day of each month
const DefaultQuotaResetSchedule = "0 0 0 1 * *"

// QuotaResetJob zeroes backtest usage at the start of each accounting period
type QuotaResetJob struct {
	resetter quota.Resetter
	schedule string
	logger   *logger.Logger
}

// NewQuotaResetJob creates a new quota reset job. An empty schedule uses the monthly default.
func NewQuotaResetJob(resetter quota.Resetter, schedule string, log *logger.Logger) *QuotaResetJob {
	if schedule == "" {
		schedule = DefaultQuotaResetSchedule
	}
	return &QuotaResetJob{
		resetter: resetter,
		schedule: schedule,
		logger:   log.WithComponent("quota_reset"),
	}
}

// Name returns the job name
func (j *QuotaResetJob) Name() string {
	return "quota_reset"
}

// Schedule returns the cron schedule
func (j *QuotaResetJob) Schedule() string {
	return j.schedule
}

// Run resets every identity's usage counter
func (j *QuotaResetJob) Run(ctx context.Context) error {
	n, err := j.resetter.Reset(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset quotas: %w", err)
	}

	j.logger.WithField("identities", n).Info("Quota usage reset")
	return nil
}
