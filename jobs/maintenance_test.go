package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskConstructorsCarryType(t *testing.T) {
	sweep, err := NewInvitationSweepTask(InvitationSweepPayload{Grace: 24 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, TaskInvitationSweep, sweep.Type())

	prune, err := NewUsageLogPruneTask(UsageLogPrunePayload{Retention: 90 * 24 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, TaskUsageLogPrune, prune.Type())
}

func TestMaintenanceRejectsMalformedPayload(t *testing.T) {
	m := NewMaintenanceJobs(nil, slog.New(slog.DiscardHandler), nil)

	err := m.HandleInvitationSweep(context.Background(), asynq.NewTask(TaskInvitationSweep, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = m.HandleUsageLogPrune(context.Background(), asynq.NewTask(TaskUsageLogPrune, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestUsageLogPruneRefusesNonPositiveRetention(t *testing.T) {
	m := NewMaintenanceJobs(nil, slog.New(slog.DiscardHandler), nil)

	task, err := NewUsageLogPruneTask(UsageLogPrunePayload{})
	require.NoError(t, err)
	assert.ErrorIs(t, m.HandleUsageLogPrune(context.Background(), task), asynq.SkipRetry)
}
