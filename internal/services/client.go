package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/go-identity/identity/internal/config"
	"github.com/go-identity/identity/internal/models"
	"github.com/go-identity/identity/internal/store"
)

// ClientService handles administrative client registration.
type ClientService struct {
	store  *store.Store
	config *config.Config
}

// NewClientService creates a new client service
func NewClientService(s *store.Store, cfg *config.Config) *ClientService {
	return &ClientService{store: s, config: cfg}
}

// CreateClient registers a confidential client and returns it together with
// the plaintext secret. The secret is shown exactly once; only its bcrypt
// hash is stored.
func (s *ClientService) CreateClient(
	ctx context.Context,
	name, description string,
	redirectURIs, grantTypes []string,
	scopes string,
) (*models.Client, string, error) {
	if name == "" {
		return nil, "", fmt.Errorf("%w: client name is required", ErrInvalidRequest)
	}
	for _, gt := range grantTypes {
		switch gt {
		case models.GrantTypePassword,
			models.GrantTypeAuthorizationCode,
			models.GrantTypeRefreshToken,
			models.GrantTypeClientCredentials:
		default:
			return nil, "", fmt.Errorf("%w: unknown grant type %q", ErrInvalidRequest, gt)
		}
	}

	client := &models.Client{
		ClientID:     uuid.New().String(),
		Name:         name,
		Description:  description,
		RedirectURIs: redirectURIs,
		GrantTypes:   joinScopes(grantTypes),
		Scopes:       scopes,
		IsActive:     true,
	}
	secret, err := client.GenerateSecret(s.config.BcryptCost)
	if err != nil {
		return nil, "", err
	}
	if err := s.store.CreateClient(ctx, client); err != nil {
		return nil, "", err
	}
	return client, secret, nil
}

// DeactivateClient marks a client inactive. Subsequent token, introspection,
// and authorize requests by the client are refused.
func (s *ClientService) DeactivateClient(ctx context.Context, clientID string) error {
	return s.store.DeactivateClient(ctx, clientID)
}

// ListClients returns all registered clients.
func (s *ClientService) ListClients(ctx context.Context) ([]models.Client, error) {
	return s.store.ListClients(ctx)
}
