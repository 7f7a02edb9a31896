package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/affinet/affinet/internal/platform/httpx"
)

// Sentinel errors wrap the transport-level ones so handlers can pass them
// straight to httpx.RespondError.
var (
	ErrNotFound          = fmt.Errorf("tenant: %w", httpx.ErrNotFound)
	ErrDuplicateName     = fmt.Errorf("tenant name already in use: %w", httpx.ErrDuplicate)
	ErrInvalidTransition = fmt.Errorf("invalid subscription status transition: %w", httpx.ErrValidation)
	ErrTenantMismatch    = fmt.Errorf("tenant: %w", httpx.ErrForbidden)
)

// Repository defines persistence operations for tenants.
type Repository interface {
	List(ctx context.Context) ([]Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Create(ctx context.Context, t *Tenant) error
	Rename(ctx context.Context, id uuid.UUID, name string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error
	UpdateTier(ctx context.Context, id uuid.UUID, tierID uuid.UUID) error
	ListTiers(ctx context.Context) ([]SubscriptionTier, error)
	TenantExists(ctx context.Context, id uuid.UUID) (bool, error)
	TenantWritable(ctx context.Context, id uuid.UUID) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const tenantColumns = `id, name, subscription_status, subscription_tier_id, trial_ends_at, created_at, updated_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.SubscriptionStatus, &t.SubscriptionTierID,
		&t.TrialEndsAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns every tenant ordered by name.
func (r *PGRepository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Get fetches a single tenant by id.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// Create inserts a new tenant and fills in the generated fields.
func (r *PGRepository) Create(ctx context.Context, t *Tenant) error {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tenants (id, name, subscription_status, subscription_tier_id, trial_ends_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		t.ID, t.Name, t.SubscriptionStatus, t.SubscriptionTierID, t.TrialEndsAt)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// Rename updates the tenant's display name.
func (r *PGRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus moves the subscription status.
func (r *PGRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET subscription_status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTier changes the tenant's plan. The tier must exist and be active.
func (r *PGRepository) UpdateTier(ctx context.Context, id uuid.UUID, tierID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET subscription_tier_id = $2, updated_at = NOW()
		 WHERE id = $1 AND EXISTS (SELECT 1 FROM subscription_tiers WHERE id = $2 AND is_active)`,
		id, tierID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTiers returns the active subscription tiers.
func (r *PGRepository) ListTiers(ctx context.Context) ([]SubscriptionTier, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, max_sites, max_users, price_monthly, price_yearly, is_active
		 FROM subscription_tiers WHERE is_active ORDER BY max_sites`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubscriptionTier
	for rows.Next() {
		var t SubscriptionTier
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.MaxSites, &t.MaxUsers,
			&t.PriceMonthly, &t.PriceYearly, &t.IsActive); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TenantExists reports whether the tenant row is present at all. Any status
// counts; existence and writability are separate questions.
func (r *PGRepository) TenantExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// TenantWritable reports whether the tenant may accept mutations. A missing
// tenant is not writable.
func (r *PGRepository) TenantWritable(ctx context.Context, id uuid.UUID) (bool, error) {
	var status SubscriptionStatus
	err := r.pool.QueryRow(ctx,
		`SELECT subscription_status FROM tenants WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return status.Writable(), nil
}

var _ Repository = (*PGRepository)(nil)
