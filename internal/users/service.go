package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/konta-pos/konta-pos/internal/rbac"
)

// Service orchestrates user management.
type Service struct {
	repo *Repository
}

// NewService constructs a Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns users filtered by role ("" for all).
func (s *Service) List(ctx context.Context, role string) ([]User, error) {
	return s.repo.List(ctx, role)
}

// ListSellers returns active seller accounts for seller selection.
func (s *Service) ListSellers(ctx context.Context) ([]User, error) {
	sellers, err := s.repo.List(ctx, rbac.RoleSeller)
	if err != nil {
		return nil, err
	}
	active := sellers[:0]
	for _, u := range sellers {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account.
func (s *Service) Create(ctx context.Context, email, fullName, password, role string) (int64, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return 0, errors.New("users: email required")
	}
	if role != rbac.RoleAdmin && role != rbac.RoleSeller {
		return 0, errors.New("users: unknown role")
	}
	if len(password) < 8 {
		return 0, errors.New("users: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	return s.repo.Create(ctx, email, strings.TrimSpace(fullName), string(hash), role)
}

// Deactivate disables an account.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}
