package audit

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/parablehq/parable/pkg/observability"
)

// RetentionConfig controls how long audit data is kept.
type RetentionConfig struct {
	// Days is the retention window; files and rows older than this are
	// removed on each sweep.
	Days int

	// Schedule is a cron expression for the sweep, hourly by default.
	Schedule string
}

// DefaultRetentionConfig keeps 90 days of audit data, swept hourly.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{Days: 90, Schedule: "0 * * * *"}
}

// Retention periodically deletes expired audit data: rotated log files in
// the file logger's directory and, when a DB sink is configured, old rows.
type Retention struct {
	cfg    RetentionConfig
	logDir string
	db     *DBLogger
	cron   *cron.Cron
	logger *observability.Logger
}

// NewRetention creates a retention sweeper. db may be nil when only the
// file sink is in use.
func NewRetention(cfg RetentionConfig, logDir string, db *DBLogger, logger *observability.Logger) *Retention {
	if cfg.Days <= 0 {
		cfg.Days = DefaultRetentionConfig().Days
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultRetentionConfig().Schedule
	}
	return &Retention{cfg: cfg, logDir: logDir, db: db, cron: cron.New(), logger: logger}
}

// Start schedules the sweep and runs the cron loop in the background.
func (r *Retention) Start() error {
	if _, err := r.cron.AddFunc(r.cfg.Schedule, func() { r.Sweep(context.Background()) }); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting for a running sweep to finish.
func (r *Retention) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// Sweep removes audit data older than the retention window. Sweep errors
// are logged and swallowed; retention must never take the service down.
func (r *Retention) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(r.cfg.Days) * 24 * time.Hour)

	if removed := r.sweepFiles(cutoff); removed > 0 {
		r.logger.WithField("removed", removed).Info("removed expired audit log files")
	}

	if r.db != nil {
		purged, err := r.db.Purge(ctx, cutoff)
		if err != nil {
			r.logger.WithError(err).Warn("audit db purge failed")
		} else if purged > 0 {
			r.logger.WithField("purged", purged).Info("purged expired audit rows")
		}
	}
}

func (r *Retention) sweepFiles(cutoff time.Time) int {
	if r.logDir == "" {
		return 0
	}

	files, err := filepath.Glob(filepath.Join(r.logDir, "actions-*.log"))
	if err != nil {
		r.logger.WithError(err).Warn("audit log sweep failed")
		return 0
	}

	removed := 0
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				r.logger.WithError(err).WithField("file", file).Warn("failed to remove expired audit log")
				continue
			}
			removed++
		}
	}
	return removed
}
