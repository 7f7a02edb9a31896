package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageLog represents a record stored in usage_logs.
type UsageLog struct {
	TenantID     *uuid.UUID
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	At           time.Time
}

// UsageLogger writes activity records into usage_logs.
type UsageLogger struct {
	pool *pgxpool.Pool
}

// NewUsageLogger returns a new UsageLogger.
func NewUsageLogger(pool *pgxpool.Pool) *UsageLogger {
	return &UsageLogger{pool: pool}
}

// Record persists the log entry. Callers treat failures as non-fatal: a lost
// usage record must not fail the mutation it describes.
func (l *UsageLogger) Record(ctx context.Context, log UsageLog) error {
	if l == nil {
		return errors.New("usage logger not initialised")
	}
	if log.Action == "" {
		return errors.New("usage log requires an action")
	}
	details, err := json.Marshal(log.Details)
	if err != nil {
		return err
	}
	at := log.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO usage_logs (tenant_id, user_id, action, resource_type, resource_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.TenantID, log.UserID, log.Action, log.ResourceType, log.ResourceID, details, at)
	return err
}
