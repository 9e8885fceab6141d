package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReminderJobName is the name of the follow-up reminder job
const ReminderJobName = "followup_reminder"

// DefaultReminderTimeout bounds a single sweep run.
const DefaultReminderTimeout = 5 * time.Minute

// ReminderSweeper defines the interface for sweeping due follow-ups.
// This interface allows the job to call the service without importing
// the service package directly.
type ReminderSweeper interface {
	// Sweep posts reminder activities for follow-ups due by the end of
	// the current day and returns the number of reminders emitted.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// ReminderJob posts reminder notes on leads whose follow-ups are due.
type ReminderJob struct {
	sweeper ReminderSweeper
	logger  *zap.Logger
	timeout time.Duration
}

// NewReminderJob creates a new follow-up reminder job.
// The timeout controls how long a single sweep is allowed to run.
func NewReminderJob(sweeper ReminderSweeper, logger *zap.Logger, timeout time.Duration) *ReminderJob {
	return &ReminderJob{
		sweeper: sweeper,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one reminder sweep.
// This is called by the scheduler according to the cron expression.
func (j *ReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	reminded, err := j.sweeper.Sweep(ctx, start)
	if err != nil {
		j.logger.Error("follow-up reminder sweep failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if reminded > 0 {
		j.logger.Info("follow-up reminder sweep completed",
			zap.Int("reminded", reminded),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterReminderJob registers the follow-up reminder job with the scheduler.
// The cronExpr should be a valid cron expression with seconds field
// (e.g., "0 */15 * * * *" for every 15 minutes).
func RegisterReminderJob(scheduler *Scheduler, sweeper ReminderSweeper, logger *zap.Logger, cronExpr string) error {
	job := NewReminderJob(sweeper, logger, DefaultReminderTimeout)
	return scheduler.AddJob(ReminderJobName, cronExpr, job.Run)
}
