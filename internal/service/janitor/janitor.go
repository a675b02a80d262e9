// Package janitor removes rows the auth flow no longer needs: blacklist
// entries for tokens that expired on their own and verification codes
// that are used or past their deadline.
package janitor

import (
	"context"
	"time"

	"github.com/mojoplatform/mojoauth/internal/logger"
	"github.com/mojoplatform/mojoauth/internal/repository"
)

const (
	defaultInterval = 1 * time.Hour

	// How long blacklist entries are kept. Must not be shorter than the
	// longest token lifetime: a pruned entry unrevokes a live token
	defaultRetention = 31 * 24 * time.Hour
)

type Config struct {
	// How often cleanup runs. If not set then default 1 hour is used
	Interval time.Duration

	// How long blacklist entries are kept after revocation
	Retention time.Duration

	Logger logger.Logger
}

type Janitor struct {
	interval  time.Duration
	retention time.Duration
	storage   repository.Storage
	logger    logger.Logger
}

func New(cfg Config, storage repository.Storage) *Janitor {
	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Retention == 0 {
		cfg.Retention = defaultRetention
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Janitor{
		interval:  cfg.Interval,
		retention: cfg.Retention,
		storage:   storage,
		logger:    log,
	}
}

// Run starts the cleanup loop and returns a channel that is closed when
// the loop has fully stopped after context cancellation
func (j *Janitor) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	j.logger.Debug("Starting janitor", "interval", j.interval, "retention", j.retention)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				j.logger.Debug("Janitor stopped by context")
				return

			case <-ticker.C:
				j.cleanup(ctx)
			}
		}
	}()

	return idleStopped
}

// Cleanup once. Failures are logged, the next tick retries
func (j *Janitor) cleanup(ctx context.Context) {
	now := time.Now()

	tokens, err := j.storage.Blacklist().DeleteRevokedBefore(ctx, now.Add(-j.retention))
	if err != nil {
		j.logger.Error("Failed to prune token blacklist", "error", err.Error())
	}

	codes, err := j.storage.VerificationCode().DeleteDeadCodes(ctx, now)
	if err != nil {
		j.logger.Error("Failed to prune verification codes", "error", err.Error())
	}

	j.logger.Debug("Janitor tick done", "tokens_pruned", tokens, "codes_pruned", codes)
}
