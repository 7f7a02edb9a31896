package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/platform/db"
)

// Repository defines persistence operations for user administration. Every
// method that touches scoped rows takes the caller's row filter and ANDs it
// into the statement, so a row outside the filter behaves exactly like a
// missing row.
type Repository interface {
	List(ctx context.Context, filter authz.Predicate, limit, offset int) ([]User, error)
	Count(ctx context.Context, filter authz.Predicate) (int, error)
	Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*User, error)
	Create(ctx context.Context, u *User, passwordHash string) error
	Update(ctx context.Context, filter authz.Predicate, id uuid.UUID, firstName, lastName, role *string) (*User, error)
	SetActive(ctx context.Context, filter authz.Predicate, id uuid.UUID, active bool) error

	CreateInvitation(ctx context.Context, inv *Invitation) error
	ListInvitations(ctx context.Context, filter authz.Predicate) ([]Invitation, error)
	RevokeInvitation(ctx context.Context, filter authz.Predicate, id uuid.UUID) error
	FindInvitationByToken(ctx context.Context, token string) (*Invitation, error)
	RedeemInvitation(ctx context.Context, u *User, passwordHash string, invitationID uuid.UUID, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, auth_id, tenant_id, email, first_name, last_name, role, is_active, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.AuthID, &u.TenantID, &u.Email, &u.FirstName, &u.LastName,
		&u.Role, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// List returns a page of the users visible through the filter, ordered by
// email.
func (r *PGRepository) List(ctx context.Context, filter authz.Predicate, limit, offset int) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	clause, args := filter.Clause(1)
	if clause != "" {
		query += ` WHERE ` + clause
	}
	next := len(args) + 1
	query += fmt.Sprintf(` ORDER BY email LIMIT $%d OFFSET $%d`, next, next+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Count returns how many users the filter covers.
func (r *PGRepository) Count(ctx context.Context, filter authz.Predicate) (int, error) {
	query := `SELECT COUNT(*) FROM users`
	clause, args := filter.Clause(1)
	if clause != "" {
		query += ` WHERE ` + clause
	}
	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Get fetches a single user the filter allows.
func (r *PGRepository) Get(ctx context.Context, filter authz.Predicate, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	args := []any{id}
	if clause, extra := filter.Clause(2); clause != "" {
		query += ` AND ` + clause
		args = append(args, extra...)
	}
	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// Create inserts a new account.
func (r *PGRepository) Create(ctx context.Context, u *User, passwordHash string) error {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, auth_id, tenant_id, email, first_name, last_name, role, password_hash, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NOW(), NOW())
		 RETURNING is_active, created_at, updated_at`,
		u.ID, u.AuthID, u.TenantID, u.Email, u.FirstName, u.LastName, u.Role, passwordHash)
	if err := row.Scan(&u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Update applies a partial update to a user the filter allows. Nil fields
// keep their current value.
func (r *PGRepository) Update(ctx context.Context, filter authz.Predicate, id uuid.UUID, firstName, lastName, role *string) (*User, error) {
	query := `UPDATE users SET
		first_name = COALESCE($2, first_name),
		last_name = COALESCE($3, last_name),
		role = COALESCE($4, role),
		updated_at = NOW()
	 WHERE id = $1`
	args := []any{id, firstName, lastName, role}
	if clause, extra := filter.Clause(5); clause != "" {
		query += ` AND ` + clause
		args = append(args, extra...)
	}
	query += ` RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// SetActive flips the active flag on a user the filter allows.
func (r *PGRepository) SetActive(ctx context.Context, filter authz.Predicate, id uuid.UUID, active bool) error {
	query := `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`
	args := []any{id, active}
	if clause, extra := filter.Clause(3); clause != "" {
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

const invitationColumns = `id, tenant_id, email, role, invited_by, token, expires_at, accepted_at, created_at`

func scanInvitation(row pgx.Row) (*Invitation, error) {
	var inv Invitation
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.InvitedBy,
		&inv.Token, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// CreateInvitation inserts a pending invitation.
func (r *PGRepository) CreateInvitation(ctx context.Context, inv *Invitation) error {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO user_invitations (id, tenant_id, email, role, invited_by, token, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 RETURNING created_at`,
		inv.ID, inv.TenantID, inv.Email, inv.Role, inv.InvitedBy, inv.Token, inv.ExpiresAt)
	if err := row.Scan(&inv.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateInvitation
		}
		return err
	}
	return nil
}

// ListInvitations returns pending invitations visible through the filter.
func (r *PGRepository) ListInvitations(ctx context.Context, filter authz.Predicate) ([]Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM user_invitations WHERE accepted_at IS NULL`
	var args []any
	if clause, extra := filter.Clause(1); clause != "" {
		query += ` AND ` + clause
		args = extra
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// RevokeInvitation deletes a pending invitation the filter allows.
func (r *PGRepository) RevokeInvitation(ctx context.Context, filter authz.Predicate, id uuid.UUID) error {
	query := `DELETE FROM user_invitations WHERE id = $1 AND accepted_at IS NULL`
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
		return ErrInvitationNotFound
	}
	return nil
}

// FindInvitationByToken looks up an invitation by its redemption token.
func (r *PGRepository) FindInvitationByToken(ctx context.Context, token string) (*Invitation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM user_invitations WHERE token = $1`, token)
	return scanInvitation(row)
}

// RedeemInvitation creates the account and stamps the invitation in one
// transaction. The stamp only lands on an unaccepted row, so a concurrent
// second redemption of the same token rolls back with ErrInvitationAccepted.
func (r *PGRepository) RedeemInvitation(ctx context.Context, u *User, passwordHash string, invitationID uuid.UUID, at time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO users (id, auth_id, tenant_id, email, first_name, last_name, role, password_hash, is_active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NOW(), NOW())
			 RETURNING is_active, created_at, updated_at`,
			u.ID, u.AuthID, u.TenantID, u.Email, u.FirstName, u.LastName, u.Role, passwordHash)
		if err := row.Scan(&u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE user_invitations SET accepted_at = $2 WHERE id = $1 AND accepted_at IS NULL`,
			invitationID, at.UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInvitationAccepted
		}
		return nil
	})
}

var _ Repository = (*PGRepository)(nil)
