package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// OverdueScanner is implemented by the approval workflow.
type OverdueScanner interface {
	ScanOverdue(ctx context.Context) (int, error)
}

// ApprovalJobs contains approval-related cron jobs
type ApprovalJobs struct {
	scanner  OverdueScanner
	interval time.Duration
	logger   *slog.Logger
}

func NewApprovalJobs(scanner OverdueScanner, interval time.Duration, logger *slog.Logger) *ApprovalJobs {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalJobs{scanner: scanner, interval: interval, logger: logger}
}

// RegisterJobs registers all approval-related cron jobs
func (j *ApprovalJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("flag_overdue_approvals", j.interval, j.FlagOverdueApprovals)
}

// FlagOverdueApprovals emits an overdue event for every pending request past
// its deadline. Requests keep their status.
func (j *ApprovalJobs) FlagOverdueApprovals(ctx context.Context) error {
	n, err := j.scanner.ScanOverdue(ctx)
	if err != nil {
		return fmt.Errorf("scan overdue approvals: %w", err)
	}
	if n > 0 {
		j.logger.Info("Cron: Flagged overdue approval requests", "count", n)
	}
	return nil
}
