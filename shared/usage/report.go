package usage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"verifylens/internal/models"
)

// Notifier delivers a usage snapshot somewhere outside the process log.
type Notifier interface {
	SendUsageReport(stats models.UsageStats) error
}

// ReportJob logs the usage report on a schedule and optionally forwards it.
type ReportJob struct {
	tracker  *Tracker
	notifier Notifier
	log      logrus.FieldLogger
}

func NewReportJob(tracker *Tracker, log logrus.FieldLogger) *ReportJob {
	return &ReportJob{tracker: tracker, log: log}
}

// WithNotifier makes every run also hand the stats to n.
func (r *ReportJob) WithNotifier(n Notifier) *ReportJob {
	r.notifier = n
	return r
}

func (r *ReportJob) Name() string {
	return "Usage Report"
}

func (r *ReportJob) RunOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stats := r.tracker.Stats()
	r.log.WithFields(logrus.Fields{
		"total_prompts": stats.Summary.TotalPrompts,
		"total_tokens":  stats.Summary.TotalTokens,
	}).Info("\n" + r.tracker.GenerateReport())

	if r.notifier == nil {
		return nil
	}
	if err := r.notifier.SendUsageReport(stats); err != nil {
		return fmt.Errorf("failed to deliver usage report: %w", err)
	}
	return nil
}
