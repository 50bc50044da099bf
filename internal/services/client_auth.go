package services

import (
	"context"
	"errors"

	"github.com/go-identity/identity/internal/metrics"
	"github.com/go-identity/identity/internal/models"
	"github.com/go-identity/identity/internal/store"
)

// ClientAuthenticator resolves a client and verifies its credentials.
// Every client is confidential: a secret is always required.
type ClientAuthenticator struct {
	store   *store.Store
	metrics metrics.Recorder
}

// NewClientAuthenticator creates a new client authenticator
func NewClientAuthenticator(s *store.Store, m metrics.Recorder) *ClientAuthenticator {
	return &ClientAuthenticator{store: s, metrics: m}
}

// Authenticate verifies client credentials and, when grantType is
// non-empty, that the client may use that grant. Unknown client, inactive
// client, and wrong secret all collapse to ErrInvalidClient.
func (a *ClientAuthenticator) Authenticate(
	ctx context.Context,
	clientID, clientSecret, grantType string,
) (*models.Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrInvalidClient
	}

	client, err := a.store.GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			a.metrics.RecordAuthAttempt("client", false)
			return nil, ErrInvalidClient
		}
		return nil, err
	}

	if !client.IsActive {
		a.metrics.RecordAuthAttempt("client", false)
		return nil, ErrInvalidClient
	}

	if !client.ValidateSecret([]byte(clientSecret)) {
		a.metrics.RecordAuthAttempt("client", false)
		return nil, ErrInvalidClient
	}

	if grantType != "" && !client.AllowsGrantType(grantType) {
		return nil, ErrUnauthorizedClient
	}

	a.metrics.RecordAuthAttempt("client", true)
	return client, nil
}
