package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Inactive accounts fail
// the same way as wrong passwords so login errors stay uniform.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// PrincipalForAuthID rebuilds the request principal from the users row. The
// role string is carried as-is: an unrecognised token stays attached to the
// principal and the policy table denies it, rather than being laundered into
// a valid role here.
func (s *Service) PrincipalForAuthID(ctx context.Context, authID uuid.UUID) (authz.Principal, error) {
	user, err := s.repo.FindByAuthID(ctx, authID)
	if err != nil {
		return authz.Principal{}, err
	}
	return authz.Principal{
		ID:       user.ID,
		Role:     authz.Role(user.Role),
		TenantID: user.TenantID,
		IsActive: user.IsActive,
	}, nil
}

// RegisterSession persists the session metadata.
func (s *Service) RegisterSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// TouchLogin stamps the last login time; failures are not fatal to login.
func (s *Service) TouchLogin(ctx context.Context, userID uuid.UUID) error {
	return s.repo.RecordLogin(ctx, userID, time.Now().UTC())
}
