package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvitationSweep expires stale user invitations.
	TaskInvitationSweep = "invitations:sweep"
	// TaskUsageLogPrune deletes usage log rows past the retention window.
	TaskUsageLogPrune = "usage:prune"
)

// InvitationSweepPayload parameterizes an invitation sweep run.
type InvitationSweepPayload struct {
	// Grace keeps expired invitations around for a while so a revoked or
	// lapsed offer is still inspectable.
	Grace time.Duration `json:"grace"`
}

// NewInvitationSweepTask constructs an invitation sweep task.
func NewInvitationSweepTask(payload InvitationSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvitationSweep, data), nil
}

// UsageLogPrunePayload parameterizes a usage log prune run.
type UsageLogPrunePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewUsageLogPruneTask constructs a usage log prune task.
func NewUsageLogPruneTask(payload UsageLogPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUsageLogPrune, data), nil
}
