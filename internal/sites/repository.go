package sites

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/affinet/affinet/internal/authz"
)

// Repository defines persistence operations for affiliate sites. The site
// filter routes through the network edge, so every scoped statement here
// carries a subquery rather than a tenant column comparison.
type Repository interface {
	List(ctx context.Context, filter authz.Predicate) ([]Site, error)
	Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*Site, error)
	Create(ctx context.Context, networkFilter authz.Predicate, s *Site) error
	Update(ctx context.Context, filter authz.Predicate, id uuid.UUID, req UpdateSiteRequest) (*Site, error)
	Delete(ctx context.Context, filter authz.Predicate, id uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const siteColumns = `id, network_id, name, domain, template_id, status, created_at, updated_at`

func scanSite(row pgx.Row) (*Site, error) {
	var s Site
	err := row.Scan(&s.ID, &s.NetworkID, &s.Name, &s.Domain, &s.TemplateID,
		&s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns the sites visible through the filter, ordered by name.
func (r *PGRepository) List(ctx context.Context, filter authz.Predicate) ([]Site, error) {
	query := `SELECT ` + siteColumns + ` FROM affiliate_sites`
	clause, args := filter.Clause(1)
	if clause != "" {
		query += ` WHERE ` + clause
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Get fetches a single site the filter allows.
func (r *PGRepository) Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*Site, error) {
	query := `SELECT ` + siteColumns + ` FROM affiliate_sites WHERE id = $1`
	args := []any{id}
	if clause, extra := filter.Clause(2); clause != "" {
		query += ` AND ` + clause
		args = append(args, extra...)
	}
	return scanSite(r.pool.QueryRow(ctx, query, args...))
}

// Create inserts a site after proving the parent network is inside the
// caller's partition. The ownership check and the insert are one statement,
// so there is no window for the network to move between check and write.
func (r *PGRepository) Create(ctx context.Context, networkFilter authz.Predicate, s *Site) error {
	query := `INSERT INTO affiliate_sites (id, network_id, name, domain, template_id, status, created_at, updated_at)
		 SELECT $1, $2, $3, $4, $5, $6, NOW(), NOW()
		 WHERE EXISTS (SELECT 1 FROM affiliate_networks WHERE id = $2`
	args := []any{s.ID, s.NetworkID, s.Name, s.Domain, s.TemplateID, s.Status}
	if clause, extra := networkFilter.Clause(7); clause != "" {
		query += ` AND ` + clause
		args = append(args, extra...)
	}
	query += `) RETURNING created_at, updated_at`

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The parent network is missing or outside the partition; both
			// look the same to the caller.
			return ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateDomain
		}
		return err
	}
	return nil
}

// Update applies a partial update to a site the filter allows.
func (r *PGRepository) Update(ctx context.Context, filter authz.Predicate, id uuid.UUID, req UpdateSiteRequest) (*Site, error) {
	query := `UPDATE affiliate_sites SET
		name = COALESCE($2, name),
		domain = COALESCE($3, domain),
		status = COALESCE($4, status),
		updated_at = NOW()
	 WHERE id = $1`
	args := []any{id, req.Name, req.Domain, req.Status}
	if clause, extra := filter.Clause(5); clause != "" {
		query += ` AND ` + clause
		args = append(args, extra...)
	}
	query += ` RETURNING ` + siteColumns

	s, err := scanSite(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateDomain
		}
		return nil, err
	}
	return s, nil
}

// Delete removes a site the filter allows.
func (r *PGRepository) Delete(ctx context.Context, filter authz.Predicate, id uuid.UUID) error {
	query := `DELETE FROM affiliate_sites WHERE id = $1`
	args := []any{id}
	if clause, extra := filter.Clause(2); clause != "" {
		query += ` AND ` + clause
		args = append(args, extra...)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
