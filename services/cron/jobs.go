package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/utils/auth"
)

// Jobs bundles everything the scheduled maintenance work needs
type Jobs struct {
	db        *gorm.DB
	blacklist *auth.BlacklistService
	shares    *services.ShareService
}

// NewJobs creates the maintenance job set
func NewJobs(db *gorm.DB, blacklist *auth.BlacklistService, shares *services.ShareService) *Jobs {
	return &Jobs{db: db, blacklist: blacklist, shares: shares}
}

// RegisterAll wires every maintenance job into the scheduler
func (j *Jobs) RegisterAll(m *Manager) error {
	if err := m.Register("@hourly", "purge_expired_blacklist_tokens", j.PurgeExpiredBlacklistTokens); err != nil {
		return fmt.Errorf("failed to register blacklist purge job: %w", err)
	}
	if err := m.Register("@hourly", "sweep_expired_shares", j.SweepExpiredShares); err != nil {
		return fmt.Errorf("failed to register share sweep job: %w", err)
	}
	if err := m.Register("@hourly", "prune_expired_login_sessions", j.PruneExpiredLoginSessions); err != nil {
		return fmt.Errorf("failed to register session prune job: %w", err)
	}
	if err := m.Register("@daily", "trim_cron_job_logs", j.TrimJobLogs); err != nil {
		return fmt.Errorf("failed to register log trim job: %w", err)
	}
	return nil
}

// PurgeExpiredBlacklistTokens deletes blacklist rows whose tokens have
// expired anyway and can no longer be replayed.
func (j *Jobs) PurgeExpiredBlacklistTokens(ctx context.Context) (int64, error) {
	return j.blacklist.CleanupExpiredTokens(ctx)
}

// SweepExpiredShares revokes public shares that have passed their expiry
func (j *Jobs) SweepExpiredShares(ctx context.Context) (int64, error) {
	return j.shares.SweepExpired(ctx)
}

// PruneExpiredLoginSessions revokes login sessions past their refresh
// token lifetime.
func (j *Jobs) PruneExpiredLoginSessions(ctx context.Context) (int64, error) {
	now := time.Now()
	result := j.db.WithContext(ctx).
		Model(&model.LoginSession{}).
		Where("revoked_at IS NULL AND expires_at < ?", now).
		Update("revoked_at", &now)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune login sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// TrimJobLogs keeps the cron log table from growing without bound
func (j *Jobs) TrimJobLogs(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -30)
	result := j.db.WithContext(ctx).
		Where("started_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to trim cron job logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
