// Package jobs holds the background jobs of the contract generator.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Admin-EWorld/contracts/internal/platform/env"
	"github.com/Admin-EWorld/contracts/internal/service/contracts"
	"github.com/robfig/cron/v3"
)

type Purger interface {
	PurgeExpired(ctx context.Context, limit int) (contracts.PurgeReport, error)
}

type RetentionConfig struct {
	Schedule  string
	BatchSize int
	Timeout   time.Duration
}

func RetentionConfigFromEnv() (RetentionConfig, error) {
	batch, err := env.Int("CONTRACTS_RETENTION_BATCH", 100)
	if err != nil {
		return RetentionConfig{}, err
	}
	timeout, err := env.Duration("CONTRACTS_RETENTION_TIMEOUT", 5*time.Minute)
	if err != nil {
		return RetentionConfig{}, err
	}
	cfg := RetentionConfig{
		Schedule:  strings.TrimSpace(env.String("CONTRACTS_RETENTION_SCHEDULE", "@daily")),
		BatchSize: batch,
		Timeout:   timeout,
	}
	if err := cfg.Validate(); err != nil {
		return RetentionConfig{}, err
	}
	return cfg, nil
}

func (c RetentionConfig) Validate() error {
	if c.Schedule == "" {
		return errors.New("CONTRACTS_RETENTION_SCHEDULE is required")
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("CONTRACTS_RETENTION_SCHEDULE: %w", err)
	}
	if c.BatchSize < 1 {
		return errors.New("CONTRACTS_RETENTION_BATCH must be >= 1")
	}
	if c.Timeout <= 0 {
		return errors.New("CONTRACTS_RETENTION_TIMEOUT must be positive")
	}
	return nil
}

// Retention periodically removes documents whose retention window closed.
type Retention struct {
	purger Purger
	logger *slog.Logger
	cfg    RetentionConfig
	cron   *cron.Cron
}

func NewRetention(purger Purger, logger *slog.Logger, cfg RetentionConfig) (*Retention, error) {
	if purger == nil {
		return nil, errors.New("purger is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Retention{purger: purger, logger: logger.With("job", "retention"), cfg: cfg}

	clog := cronLogger{logger: r.logger}
	r.cron = cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	if _, err := r.cron.AddFunc(cfg.Schedule, func() { r.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule retention: %w", err)
	}
	return r, nil
}

// RunOnce purges batches until a batch comes back short or makes no progress.
func (r *Retention) RunOnce(ctx context.Context) contracts.PurgeReport {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	var total contracts.PurgeReport
	for {
		report, err := r.purger.PurgeExpired(ctx, r.cfg.BatchSize)
		total.Purged += report.Purged
		total.Failed += report.Failed
		if err != nil {
			r.logger.Error("retention purge failed", "err", err, "purged", total.Purged, "failed", total.Failed)
			return total
		}
		if report.Purged == 0 || report.Purged+report.Failed < r.cfg.BatchSize {
			break
		}
	}
	if total.Purged > 0 {
		r.logger.Info("retention purge done", "purged", total.Purged)
	} else {
		r.logger.Debug("retention purge found nothing")
	}
	return total
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running purge to finish.
func (r *Retention) Run(ctx context.Context) {
	r.logger.Info("retention job scheduled", "schedule", r.cfg.Schedule)
	r.cron.Start()
	<-ctx.Done()
	<-r.cron.Stop().Done()
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}
