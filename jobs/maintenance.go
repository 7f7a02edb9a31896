package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/affinet/affinet/internal/jobs"
)

// MaintenanceJobs holds the periodic housekeeping handlers. Both jobs are
// idempotent; running them twice deletes nothing extra.
type MaintenanceJobs struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewMaintenanceJobs constructs the maintenance handlers.
func NewMaintenanceJobs(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *MaintenanceJobs {
	return &MaintenanceJobs{pool: pool, logger: logger, metrics: metrics}
}

// HandleInvitationSweep deletes invitations that expired before the grace
// window and were never accepted.
func (m *MaintenanceJobs) HandleInvitationSweep(ctx context.Context, t *asynq.Task) error {
	tracker := m.metrics.Track(TaskInvitationSweep)
	var payload InvitationSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	cutoff := time.Now().UTC().Add(-payload.Grace)
	tag, err := m.pool.Exec(ctx,
		`DELETE FROM user_invitations WHERE accepted_at IS NULL AND expires_at < $1`, cutoff)
	if err != nil {
		m.logger.Error("invitation sweep failed", slog.Any("error", err))
		return tracker.End(err)
	}
	m.logger.Info("invitation sweep complete", slog.Int64("deleted", tag.RowsAffected()))
	return tracker.End(nil)
}

// HandleUsageLogPrune trims usage_logs to the retention window.
func (m *MaintenanceJobs) HandleUsageLogPrune(ctx context.Context, t *asynq.Task) error {
	tracker := m.metrics.Track(TaskUsageLogPrune)
	var payload UsageLogPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if payload.Retention <= 0 {
		// A zero retention would empty the table; refuse rather than guess.
		return tracker.End(asynq.SkipRetry)
	}
	cutoff := time.Now().UTC().Add(-payload.Retention)
	tag, err := m.pool.Exec(ctx, `DELETE FROM usage_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		m.logger.Error("usage log prune failed", slog.Any("error", err))
		return tracker.End(err)
	}
	m.logger.Info("usage log prune complete", slog.Int64("deleted", tag.RowsAffected()))
	return tracker.End(nil)
}
