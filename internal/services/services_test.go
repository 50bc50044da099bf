package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/go-identity/identity/internal/cache"
	"github.com/go-identity/identity/internal/config"
	"github.com/go-identity/identity/internal/hash"
	"github.com/go-identity/identity/internal/metrics"
	"github.com/go-identity/identity/internal/models"
	"github.com/go-identity/identity/internal/store"
	"github.com/go-identity/identity/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	testUserPassword = "correct horse battery staple"
	testRedirectURI  = "https://app.example.com/callback"
)

// testEnv wires real components against an in-memory sqlite database. Only
// the Redis cache is replaced, with the in-memory implementation.
type testEnv struct {
	store         *store.Store
	config        *config.Config
	signer        *token.Signer
	hasher        *hash.Hasher
	cache         cache.Cache[IntrospectionResponse]
	clients       *ClientAuthenticator
	users         *UserAuthenticator
	tokens        *TokenService
	authorization *AuthorizationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := store.New("sqlite", dsn)
	require.NoError(t, err)

	cfg := &config.Config{
		Issuer:                "https://auth.example.com",
		AccessTokenTTL:        30 * time.Minute,
		RefreshTokenTTL:       7 * 24 * time.Hour,
		AuthCodeTTL:           10 * time.Minute,
		IntrospectionCacheTTL: 5 * time.Minute,
		BcryptCost:            hash.MinCost,
	}

	signer := newEnvSigner(t, cfg.Issuer)
	hasher, err := hash.New(hash.MinCost)
	require.NoError(t, err)

	c := cache.NewMemoryCache[IntrospectionResponse]()
	recorder := metrics.NewNoopMetrics()

	clients := NewClientAuthenticator(s, recorder)
	users, err := NewUserAuthenticator(s, hasher, recorder)
	require.NoError(t, err)

	return &testEnv{
		store:         s,
		config:        cfg,
		signer:        signer,
		hasher:        hasher,
		cache:         c,
		clients:       clients,
		users:         users,
		tokens:        NewTokenService(s, cfg, signer, clients, users, c, recorder),
		authorization: NewAuthorizationService(s, cfg),
	}
}

func newEnvSigner(t *testing.T, issuer string) *token.Signer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	signer, err := token.NewSigner(string(privPEM), string(pubPEM), issuer, "test-key-1", 0)
	require.NoError(t, err)
	return signer
}

// createUser stores an active user with the shared test password.
func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()

	passwordHash, err := e.hasher.Hash(testUserPassword)
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

// createClient stores an active client and returns it with the plaintext
// secret.
func (e *testEnv) createClient(t *testing.T, grantTypes, scopes string) (*models.Client, string) {
	t.Helper()

	client := &models.Client{
		ClientID:     uuid.New().String(),
		Name:         "Test App",
		RedirectURIs: models.StringArray{testRedirectURI},
		GrantTypes:   grantTypes,
		Scopes:       scopes,
		IsActive:     true,
	}
	secret, err := client.GenerateSecret(hash.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.store.CreateClient(context.Background(), client))
	return client, secret
}

// codeFromRedirect extracts the code parameter from an approve redirect URL.
func codeFromRedirect(t *testing.T, redirect string) string {
	t.Helper()

	u, err := url.Parse(redirect)
	require.NoError(t, err)
	code := u.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

// overrideNow pins the service clock and restores it on cleanup.
func overrideNow(t *testing.T, at time.Time) {
	t.Helper()

	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = time.Now })
}

// allGrants is the full grant list for clients that may use everything.
const allGrants = models.GrantTypePassword + " " +
	models.GrantTypeAuthorizationCode + " " +
	models.GrantTypeRefreshToken + " " +
	models.GrantTypeClientCredentials
