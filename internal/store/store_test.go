package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-identity/identity/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := New("sqlite", dsn)
	require.NoError(t, err)
	return s
}

func newTestUser() *models.User {
	id := uuid.New().String()
	return &models.User{
		ID:           id,
		Username:     "user-" + id[:8],
		Email:        "user-" + id[:8] + "@example.com",
		PasswordHash: "$2a$12$notarealhash",
		IsActive:     true,
	}
}

func newTestCode(clientID, userID string) *models.AuthorizationCode {
	plain := uuid.New().String()
	return &models.AuthorizationCode{
		CodeHash:            "hash-" + plain,
		CodePrefix:          plain[:8],
		ClientID:            clientID,
		UserID:              userID,
		RedirectURI:         "https://app.example.com/callback",
		Scopes:              "read",
		CodeChallenge:       "challenge",
		CodeChallengeMethod: models.CodeChallengeMethodS256,
		ExpiresAt:           time.Now().Add(10 * time.Minute),
	}
}

func TestNew(t *testing.T) {
	t.Run("Unsupported driver rejected", func(t *testing.T) {
		_, err := New("oracle", "dsn")
		assert.Error(t, err)
	})

	t.Run("Sqlite in-memory opens and migrates", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Health(context.Background()))
	})
}

func TestUserOperations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("Create and fetch by username and ID", func(t *testing.T) {
		user := newTestUser()
		require.NoError(t, s.CreateUser(ctx, user))

		byName, err := s.GetUserByUsername(ctx, user.Username)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)

		byID, err := s.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Username, byID.Username)
	})

	t.Run("Unknown user reports not found", func(t *testing.T) {
		_, err := s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("Duplicate username conflicts", func(t *testing.T) {
		user := newTestUser()
		require.NoError(t, s.CreateUser(ctx, user))

		dup := newTestUser()
		dup.Username = user.Username
		err := s.CreateUser(ctx, dup)
		assert.ErrorIs(t, err, ErrUsernameConflict)
	})

	t.Run("Deactivate flips is_active", func(t *testing.T) {
		user := newTestUser()
		require.NoError(t, s.CreateUser(ctx, user))

		require.NoError(t, s.DeactivateUser(ctx, user.ID))

		fetched, err := s.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, fetched.IsActive)
	})

	t.Run("Deactivate unknown user reports not found", func(t *testing.T) {
		assert.ErrorIs(t, s.DeactivateUser(ctx, "missing"), ErrRecordNotFound)
	})
}

func TestClientOperations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("Create, fetch, deactivate", func(t *testing.T) {
		client := &models.Client{
			ClientID:   uuid.New().String(),
			SecretHash: "$2a$12$notarealhash",
			Name:       "Test App",
			GrantTypes: "authorization_code",
			Scopes:     "read",
			IsActive:   true,
		}
		require.NoError(t, s.CreateClient(ctx, client))

		fetched, err := s.GetClientByClientID(ctx, client.ClientID)
		require.NoError(t, err)
		assert.Equal(t, "Test App", fetched.Name)

		require.NoError(t, s.DeactivateClient(ctx, client.ClientID))
		fetched, err = s.GetClientByClientID(ctx, client.ClientID)
		require.NoError(t, err)
		assert.False(t, fetched.IsActive)
	})

	t.Run("Unknown client reports not found", func(t *testing.T) {
		_, err := s.GetClientByClientID(ctx, "missing")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("List returns created clients", func(t *testing.T) {
		clients, err := s.ListClients(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, clients)
	})
}

func TestAuthorizationCodeOperations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("Duplicate hash rejected", func(t *testing.T) {
		code := newTestCode("client-1", "user-1")
		require.NoError(t, s.CreateAuthorizationCode(ctx, code))

		dup := newTestCode("client-1", "user-1")
		dup.CodeHash = code.CodeHash
		assert.ErrorIs(t, s.CreateAuthorizationCode(ctx, dup), ErrDuplicateCode)
	})

	t.Run("Expired code is invisible", func(t *testing.T) {
		code := newTestCode("client-1", "user-1")
		code.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, s.CreateAuthorizationCode(ctx, code))

		_, err := s.GetAuthorizationCodeByHash(ctx, code.CodeHash)
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("Consume succeeds exactly once", func(t *testing.T) {
		code := newTestCode("client-1", "user-1")
		require.NoError(t, s.CreateAuthorizationCode(ctx, code))

		consumed, err := s.ConsumeAuthorizationCode(ctx, code.CodeHash)
		require.NoError(t, err)
		assert.True(t, consumed.IsConsumed())
		assert.Equal(t, code.CodeHash, consumed.CodeHash)

		_, err = s.ConsumeAuthorizationCode(ctx, code.CodeHash)
		assert.ErrorIs(t, err, ErrCodeAlreadyConsumed)
	})

	t.Run("Consume of expired code reports not found", func(t *testing.T) {
		code := newTestCode("client-1", "user-1")
		code.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, s.CreateAuthorizationCode(ctx, code))

		_, err := s.ConsumeAuthorizationCode(ctx, code.CodeHash)
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("Consume of unknown code reports not found", func(t *testing.T) {
		_, err := s.ConsumeAuthorizationCode(ctx, "no-such-hash")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("Record issued tokens", func(t *testing.T) {
		code := newTestCode("client-1", "user-1")
		require.NoError(t, s.CreateAuthorizationCode(ctx, code))

		consumed, err := s.ConsumeAuthorizationCode(ctx, code.CodeHash)
		require.NoError(t, err)

		require.NoError(t, s.RecordIssuedTokens(ctx, consumed.ID, "a-jti", "r-jti", "a-hash", "r-hash"))

		fetched, err := s.GetAuthorizationCodeByHash(ctx, code.CodeHash)
		require.NoError(t, err)
		assert.Equal(t, "a-jti", fetched.IssuedAccessJTI)
		assert.Equal(t, "r-jti", fetched.IssuedRefreshJTI)
	})

	t.Run("Delete expired purges only stale rows", func(t *testing.T) {
		fresh := newTestCode("client-2", "user-2")
		require.NoError(t, s.CreateAuthorizationCode(ctx, fresh))

		stale := newTestCode("client-2", "user-2")
		stale.ExpiresAt = time.Now().Add(-time.Hour)
		require.NoError(t, s.CreateAuthorizationCode(ctx, stale))

		deleted, err := s.DeleteExpiredAuthorizationCodes(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, deleted, int64(1))

		_, err = s.GetAuthorizationCodeByHash(ctx, fresh.CodeHash)
		require.NoError(t, err)
	})
}

func TestRevokedTokenOperations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("Revoke and check", func(t *testing.T) {
		jti := uuid.New().String()
		require.NoError(t, s.CreateRevokedToken(ctx, jti, time.Now().Add(time.Hour)))

		revoked, err := s.IsTokenRevoked(ctx, jti)
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = s.IsTokenRevoked(ctx, "other-jti")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("Revoking twice is idempotent", func(t *testing.T) {
		jti := uuid.New().String()
		require.NoError(t, s.CreateRevokedToken(ctx, jti, time.Now().Add(time.Hour)))
		require.NoError(t, s.CreateRevokedToken(ctx, jti, time.Now().Add(time.Hour)))
	})

	t.Run("Delete expired purges stale rows", func(t *testing.T) {
		stale := uuid.New().String()
		require.NoError(t, s.CreateRevokedToken(ctx, stale, time.Now().Add(-time.Hour)))

		deleted, err := s.DeleteExpiredRevokedTokens(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, deleted, int64(1))

		revoked, err := s.IsTokenRevoked(ctx, stale)
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
