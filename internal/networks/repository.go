package networks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/affinet/affinet/internal/authz"
)

// Repository defines persistence operations for affiliate networks. Scoped
// methods AND the caller's row filter into the statement.
type Repository interface {
	List(ctx context.Context, filter authz.Predicate) ([]Network, error)
	Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*Network, error)
	Create(ctx context.Context, n *Network) error
	Update(ctx context.Context, filter authz.Predicate, id uuid.UUID, req UpdateNetworkRequest) (*Network, error)
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

const networkColumns = `id, tenant_id, name, description, logo_url, primary_color, created_at, updated_at`

func scanNetwork(row pgx.Row) (*Network, error) {
	var n Network
	err := row.Scan(&n.ID, &n.TenantID, &n.Name, &n.Description, &n.LogoURL,
		&n.PrimaryColor, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// List returns the networks visible through the filter, ordered by name.
func (r *PGRepository) List(ctx context.Context, filter authz.Predicate) ([]Network, error) {
	query := `SELECT ` + networkColumns + ` FROM affiliate_networks`
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

	var out []Network
	for rows.Next() {
		n, err := scanNetwork(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// Get fetches a single network the filter allows.
func (r *PGRepository) Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*Network, error) {
	query := `SELECT ` + networkColumns + ` FROM affiliate_networks WHERE id = $1`
	args := []any{id}
	if clause, extra := filter.Clause(2); clause != "" {
		query += ` AND ` + clause
		args = append(args, extra...)
	}
	return scanNetwork(r.pool.QueryRow(ctx, query, args...))
}

// Create inserts a new network.
func (r *PGRepository) Create(ctx context.Context, n *Network) error {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO affiliate_networks (id, tenant_id, name, description, logo_url, primary_color, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		n.ID, n.TenantID, n.Name, n.Description, n.LogoURL, n.PrimaryColor)
	if err := row.Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// Update applies a partial update to a network the filter allows.
func (r *PGRepository) Update(ctx context.Context, filter authz.Predicate, id uuid.UUID, req UpdateNetworkRequest) (*Network, error) {
	query := `UPDATE affiliate_networks SET
		name = COALESCE($2, name),
		description = COALESCE($3, description),
		logo_url = COALESCE($4, logo_url),
		primary_color = COALESCE($5, primary_color),
		updated_at = NOW()
	 WHERE id = $1`
	args := []any{id, req.Name, req.Description, req.LogoURL, req.PrimaryColor}
	if clause, extra := filter.Clause(6); clause != "" {
		query += ` AND ` + clause
		args = append(args, extra...)
	}
	query += ` RETURNING ` + networkColumns
	return scanNetwork(r.pool.QueryRow(ctx, query, args...))
}

// Delete removes a network the filter allows. Sites cascade at the schema
// level.
func (r *PGRepository) Delete(ctx context.Context, filter authz.Predicate, id uuid.UUID) error {
	query := `DELETE FROM affiliate_networks WHERE id = $1`
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
