package services

import (
	"context"
	"errors"

	"github.com/go-identity/identity/internal/hash"
	"github.com/go-identity/identity/internal/metrics"
	"github.com/go-identity/identity/internal/models"
	"github.com/go-identity/identity/internal/store"
)

// UserAuthenticator resolves a user by username and verifies the password.
// Unknown user, inactive user, and wrong password all report ErrInvalidGrant
// with a bcrypt comparison on every path, so callers cannot tell them apart
// by response or by latency.
type UserAuthenticator struct {
	store     *store.Store
	hasher    *hash.Hasher
	dummyHash string
	metrics   metrics.Recorder
}

// NewUserAuthenticator creates a new user authenticator
func NewUserAuthenticator(s *store.Store, h *hash.Hasher, m metrics.Recorder) (*UserAuthenticator, error) {
	// Hash burned on the unknown-user path to keep its latency in line
	// with a real verification.
	dummy, err := h.Hash("unknown-user-timing-equalizer")
	if err != nil {
		return nil, err
	}
	return &UserAuthenticator{
		store:     s,
		hasher:    h,
		dummyHash: dummy,
		metrics:   m,
	}, nil
}

// Authenticate verifies a username and password. Lookup is case-sensitive.
func (a *UserAuthenticator) Authenticate(
	ctx context.Context,
	username, password string,
) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidGrant
	}

	user, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			a.hasher.Verify(a.dummyHash, password)
			a.metrics.RecordAuthAttempt("user", false)
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	ok := a.hasher.Verify(user.PasswordHash, password)
	if !ok || !user.IsActive {
		a.metrics.RecordAuthAttempt("user", false)
		return nil, ErrInvalidGrant
	}

	a.metrics.RecordAuthAttempt("user", true)
	return user, nil
}
