package services

import (
	"context"
	"encoding/hex"
	"errors"
	"log"
	"net/url"

	"github.com/go-identity/identity/internal/config"
	"github.com/go-identity/identity/internal/models"
	"github.com/go-identity/identity/internal/pkce"
	"github.com/go-identity/identity/internal/store"
	"github.com/go-identity/identity/internal/util"
)

// AuthorizeRequest carries the query parameters of an authorize request.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizeContext is a validated authorize request, ready for the consent
// decision.
type AuthorizeContext struct {
	Client              *models.Client
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizationService validates authorize requests and mints single-use
// authorization codes bound to a client, user, redirect URI, and PKCE
// challenge.
type AuthorizationService struct {
	store  *store.Store
	config *config.Config
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(s *store.Store, cfg *config.Config) *AuthorizationService {
	return &AuthorizationService{store: s, config: cfg}
}

// ValidateAuthorizeRequest checks an incoming authorize request. Redirect
// URI failures must never redirect; everything downstream of a valid
// redirect URI may be reported via redirect parameters.
func (s *AuthorizationService) ValidateAuthorizeRequest(
	ctx context.Context,
	req AuthorizeRequest,
) (*AuthorizeContext, error) {
	client, err := s.store.GetClientByClientID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrInvalidClient
		}
		return nil, err
	}
	if !client.IsActive {
		return nil, ErrInvalidClient
	}

	if req.RedirectURI == "" || !client.HasRedirectURI(req.RedirectURI) {
		return nil, ErrInvalidRedirectURI
	}

	if req.ResponseType != "code" {
		return nil, ErrInvalidRequest
	}
	if !client.AllowsGrantType(models.GrantTypeAuthorizationCode) {
		return nil, ErrUnauthorizedClient
	}

	scope, err := validateScopes(req.Scope, client.Scopes)
	if err != nil {
		return nil, err
	}

	if req.CodeChallenge == "" {
		return nil, ErrPKCERequired
	}
	method := req.CodeChallengeMethod
	if method == "" {
		// RFC 7636 §4.3: absent means plain
		method = pkce.MethodPlain
	}
	if method != pkce.MethodPlain && method != pkce.MethodS256 {
		return nil, ErrInvalidRequest
	}

	return &AuthorizeContext{
		Client:              client,
		RedirectURI:         req.RedirectURI,
		Scope:               scope,
		State:               req.State,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: method,
	}, nil
}

// Approve records the user's consent, mints an authorization code, and
// returns the redirect URL carrying code and state.
func (s *AuthorizationService) Approve(
	ctx context.Context,
	req AuthorizeRequest,
	userID string,
) (string, error) {
	ac, err := s.ValidateAuthorizeRequest(ctx, req)
	if err != nil {
		return "", err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", ErrAccessDenied
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrAccessDenied
	}

	plainCode, err := s.createCode(ctx, ac, user.ID)
	if err != nil {
		return "", err
	}

	return redirectWith(ac.RedirectURI, url.Values{
		"code":  {plainCode},
		"state": {ac.State},
	}), nil
}

// Deny returns the redirect URL reporting that the user refused consent.
func (s *AuthorizationService) Deny(
	ctx context.Context,
	req AuthorizeRequest,
) (string, error) {
	ac, err := s.ValidateAuthorizeRequest(ctx, req)
	if err != nil {
		return "", err
	}

	return redirectWith(ac.RedirectURI, url.Values{
		"error": {"access_denied"},
		"state": {ac.State},
	}), nil
}

// createCode mints a 256-bit code, stores its SHA-256 hash, and returns
// the plaintext exactly once.
func (s *AuthorizationService) createCode(
	ctx context.Context,
	ac *AuthorizeContext,
	userID string,
) (string, error) {
	rBytes, err := util.CryptoRandomBytes(32)
	if err != nil {
		return "", err
	}
	plainCode := hex.EncodeToString(rBytes)

	code := &models.AuthorizationCode{
		CodeHash:            util.SHA256Hex(plainCode),
		CodePrefix:          plainCode[:8],
		ClientID:            ac.Client.ClientID,
		UserID:              userID,
		RedirectURI:         ac.RedirectURI,
		Scopes:              ac.Scope,
		CodeChallenge:       ac.CodeChallenge,
		CodeChallengeMethod: ac.CodeChallengeMethod,
		ExpiresAt:           timeNow().Add(s.config.AuthCodeTTL),
	}
	if err := s.store.CreateAuthorizationCode(ctx, code); err != nil {
		return "", err
	}

	log.Printf("[Authorize] Issued code %s... client=%s user=%s", code.CodePrefix, ac.Client.ClientID, userID)
	return plainCode, nil
}

func redirectWith(base string, params url.Values) string {
	sep := "?"
	if u, err := url.Parse(base); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return base + sep + params.Encode()
}
