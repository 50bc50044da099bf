package services

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"

	"github.com/go-identity/identity/internal/hash"
	"github.com/go-identity/identity/internal/models"
	"github.com/go-identity/identity/internal/store"
)

// UserService handles administrative user management.
type UserService struct {
	store  *store.Store
	hasher *hash.Hasher
}

// NewUserService creates a new user service
func NewUserService(s *store.Store, h *hash.Hasher) *UserService {
	return &UserService{store: s, hasher: h}
}

// CreateUser validates inputs, hashes the password, and persists the user.
// The plaintext password never leaves this function.
func (s *UserService) CreateUser(
	ctx context.Context,
	username, email, password string,
) (*models.User, error) {
	if len(username) < 3 || len(username) > 64 {
		return nil, fmt.Errorf("%w: username must be 3-64 characters", ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidRequest)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidRequest)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeactivateUser marks a user inactive. Existing tokens keep working until
// they expire or are revoked; introspection reports them by signature alone.
func (s *UserService) DeactivateUser(ctx context.Context, id string) error {
	return s.store.DeactivateUser(ctx, id)
}
