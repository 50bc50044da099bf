package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-identity/identity/internal/cache"
	"github.com/go-identity/identity/internal/config"
	"github.com/go-identity/identity/internal/metrics"
	"github.com/go-identity/identity/internal/models"
	"github.com/go-identity/identity/internal/pkce"
	"github.com/go-identity/identity/internal/store"
	"github.com/go-identity/identity/internal/token"
	"github.com/go-identity/identity/internal/util"
)

// IssueRequest carries the already-parsed form values of a token request.
type IssueRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string

	// password grant
	Username string
	Password string

	// authorization_code grant
	Code         string
	RedirectURI  string
	CodeVerifier string

	// refresh_token grant
	RefreshToken string

	Scope string
}

// TokenResponse is the success body of the token endpoint (RFC 6749 §5.1).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope"`
}

// IntrospectionResponse is the body of the introspection endpoint
// (RFC 7662 §2.2). Inactive tokens carry nothing but Active=false.
type IntrospectionResponse struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Sub       string `json:"sub,omitempty"`
	Aud       string `json:"aud,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	TokenType string `json:"token_type,omitempty"`
}

// TokenService dispatches grants, introspects, and revokes. It owns the
// introspection cache and the revoked-jti bookkeeping.
type TokenService struct {
	store   *store.Store
	config  *config.Config
	signer  *token.Signer
	clients *ClientAuthenticator
	users   *UserAuthenticator
	cache   cache.Cache[IntrospectionResponse]
	metrics metrics.Recorder
}

// NewTokenService creates a new token service
func NewTokenService(
	s *store.Store,
	cfg *config.Config,
	signer *token.Signer,
	clients *ClientAuthenticator,
	users *UserAuthenticator,
	c cache.Cache[IntrospectionResponse],
	m metrics.Recorder,
) *TokenService {
	return &TokenService{
		store:   s,
		config:  cfg,
		signer:  signer,
		clients: clients,
		users:   users,
		cache:   c,
		metrics: m,
	}
}

// Issue dispatches a token request to its grant handler.
func (s *TokenService) Issue(ctx context.Context, req IssueRequest) (*TokenResponse, error) {
	var (
		resp *TokenResponse
		err  error
	)

	switch req.GrantType {
	case models.GrantTypePassword:
		resp, err = s.handlePassword(ctx, req)
	case models.GrantTypeAuthorizationCode:
		resp, err = s.handleAuthorizationCode(ctx, req)
	case models.GrantTypeRefreshToken:
		resp, err = s.handleRefreshToken(ctx, req)
	case models.GrantTypeClientCredentials:
		resp, err = s.handleClientCredentials(ctx, req)
	default:
		err = ErrUnsupportedGrantType
	}

	if err != nil {
		s.metrics.RecordGrant(req.GrantType, grantResult(err))
		return nil, err
	}
	s.metrics.RecordGrant(req.GrantType, "success")
	return resp, nil
}

func (s *TokenService) handlePassword(ctx context.Context, req IssueRequest) (*TokenResponse, error) {
	client, err := s.clients.Authenticate(ctx, req.ClientID, req.ClientSecret, models.GrantTypePassword)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	scope, err := validateScopes(req.Scope, client.Scopes)
	if err != nil {
		return nil, err
	}

	resp, _, _, err := s.issuePair(models.GrantTypePassword, user.ID, client.ClientID, scope)
	return resp, err
}

func (s *TokenService) handleAuthorizationCode(ctx context.Context, req IssueRequest) (*TokenResponse, error) {
	client, err := s.clients.Authenticate(ctx, req.ClientID, req.ClientSecret, models.GrantTypeAuthorizationCode)
	if err != nil {
		return nil, err
	}

	if req.Code == "" || req.RedirectURI == "" || req.CodeVerifier == "" {
		return nil, ErrInvalidRequest
	}

	codeHash := util.SHA256Hex(req.Code)
	code, err := s.store.ConsumeAuthorizationCode(ctx, codeHash)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCodeAlreadyConsumed):
			// RFC 6749 §4.1.2: a replayed code invalidates everything it
			// already produced.
			s.revokeIssuedFromCode(ctx, codeHash)
			return nil, ErrInvalidGrant
		case errors.Is(err, store.ErrCodeNotFound):
			return nil, ErrInvalidGrant
		default:
			return nil, err
		}
	}

	if code.ClientID != client.ClientID {
		return nil, ErrInvalidGrant
	}
	if code.RedirectURI != req.RedirectURI {
		return nil, ErrInvalidGrant
	}
	if err := pkce.Verify(req.CodeVerifier, code.CodeChallenge, code.CodeChallengeMethod); err != nil {
		log.Printf("[Token] PKCE verification failed for code %s...: %v", code.CodePrefix, err)
		return nil, ErrInvalidGrant
	}

	resp, accessClaims, refreshClaims, err := s.issuePair(
		models.GrantTypeAuthorizationCode, code.UserID, client.ClientID, code.Scopes)
	if err != nil {
		return nil, err
	}

	if err := s.store.RecordIssuedTokens(
		ctx, code.ID,
		accessClaims.ID, refreshClaims.ID,
		util.SHA256Hex(resp.AccessToken), util.SHA256Hex(resp.RefreshToken),
	); err != nil {
		log.Printf("[Token] Failed to record issued tokens for code %s...: %v", code.CodePrefix, err)
	}

	return resp, nil
}

func (s *TokenService) handleRefreshToken(ctx context.Context, req IssueRequest) (*TokenResponse, error) {
	client, err := s.clients.Authenticate(ctx, req.ClientID, req.ClientSecret, models.GrantTypeRefreshToken)
	if err != nil {
		return nil, err
	}

	if req.RefreshToken == "" {
		return nil, ErrInvalidRequest
	}

	claims, err := s.signer.Verify(req.RefreshToken, client.ClientID)
	if err != nil {
		return nil, ErrInvalidGrant
	}
	if !claims.IsRefresh() {
		return nil, ErrInvalidGrant
	}

	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidGrant
	}

	// Narrowing only: the new pair never exceeds the old token's scope
	scope, err := validateScopes(req.Scope, claims.Scope)
	if err != nil {
		return nil, err
	}

	// Rotation is mandatory. The old jti is dead before the new pair
	// leaves the building.
	if err := s.store.CreateRevokedToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}
	if err := s.cache.Delete(ctx, util.SHA256Hex(req.RefreshToken)); err != nil {
		log.Printf("[Token] Cache invalidation failed during rotation: %v", err)
	}

	resp, _, _, err := s.issuePair(models.GrantTypeRefreshToken, claims.Subject, client.ClientID, scope)
	return resp, err
}

func (s *TokenService) handleClientCredentials(ctx context.Context, req IssueRequest) (*TokenResponse, error) {
	client, err := s.clients.Authenticate(ctx, req.ClientID, req.ClientSecret, models.GrantTypeClientCredentials)
	if err != nil {
		return nil, err
	}

	scope, err := validateScopes(req.Scope, client.Scopes)
	if err != nil {
		return nil, err
	}

	// Machine identity: sub is the client itself and no refresh token is
	// issued (RFC 6749 §4.4.3)
	accessToken, _, err := s.signer.Sign(
		client.ClientID, client.ClientID, scope, token.TypeAccess, s.config.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued(models.GrantTypeClientCredentials, token.TypeAccess)

	return &TokenResponse{
		AccessToken: accessToken,
		TokenType:   token.TokenTypeBearer,
		ExpiresIn:   int(s.config.AccessTokenTTL.Seconds()),
		Scope:       scope,
	}, nil
}

// issuePair signs an access and refresh token for a user-bound grant.
func (s *TokenService) issuePair(
	grantType, userID, clientID, scope string,
) (*TokenResponse, *token.Claims, *token.Claims, error) {
	accessToken, accessClaims, err := s.signer.Sign(
		userID, clientID, scope, token.TypeAccess, s.config.AccessTokenTTL)
	if err != nil {
		return nil, nil, nil, err
	}
	refreshToken, refreshClaims, err := s.signer.Sign(
		userID, clientID, scope, token.TypeRefresh, s.config.RefreshTokenTTL)
	if err != nil {
		return nil, nil, nil, err
	}

	s.metrics.RecordTokenIssued(grantType, token.TypeAccess)
	s.metrics.RecordTokenIssued(grantType, token.TypeRefresh)

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    token.TokenTypeBearer,
		ExpiresIn:    int(s.config.AccessTokenTTL.Seconds()),
		RefreshToken: refreshToken,
		Scope:        scope,
	}, accessClaims, refreshClaims, nil
}

// Introspect reports token state to an authenticated client (RFC 7662).
// All failure modes collapse to Active=false; the cache is consulted
// first and populated on verified hits.
func (s *TokenService) Introspect(ctx context.Context, tokenString, callerClientID string) IntrospectionResponse {
	inactive := IntrospectionResponse{Active: false}
	if tokenString == "" {
		return inactive
	}

	key := util.SHA256Hex(tokenString)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		if cached.ClientID != callerClientID {
			return inactive
		}
		s.metrics.RecordIntrospection("cache_hit")
		return cached
	}

	claims, err := s.signer.Verify(tokenString, "")
	if err != nil {
		s.metrics.RecordIntrospection("inactive")
		return inactive
	}
	if claims.ClientID != callerClientID {
		s.metrics.RecordIntrospection("inactive")
		return inactive
	}

	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil || revoked {
		if err != nil {
			log.Printf("[Introspect] Revocation lookup failed: %v", err)
		}
		s.metrics.RecordIntrospection("inactive")
		return inactive
	}

	resp := IntrospectionResponse{
		Active:    true,
		Scope:     claims.Scope,
		ClientID:  claims.ClientID,
		Sub:       claims.Subject,
		Aud:       claims.Audience(),
		Exp:       claims.ExpiresAt.Unix(),
		Iat:       claims.IssuedAt.Unix(),
		TokenType: claims.TokenType,
	}
	if claims.Subject != claims.ClientID {
		if user, err := s.store.GetUserByID(ctx, claims.Subject); err == nil {
			resp.Username = user.Username
		}
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl > s.config.IntrospectionCacheTTL {
		ttl = s.config.IntrospectionCacheTTL
	}
	if ttl > 0 {
		if err := s.cache.Set(ctx, key, resp, ttl); err != nil {
			log.Printf("[Introspect] Cache write failed: %v", err)
		}
	}

	s.metrics.RecordIntrospection("active")
	return resp
}

// Revoke marks a token's jti revoked and purges its cache entry before
// returning (RFC 7009). Unknown tokens and tokens owned by other clients
// succeed silently.
func (s *TokenService) Revoke(ctx context.Context, tokenString, tokenTypeHint, callerClientID string) error {
	switch tokenTypeHint {
	case "", "access_token", "refresh_token":
	default:
		return ErrUnsupportedTokenType
	}
	if tokenString == "" {
		return ErrInvalidRequest
	}

	// Expired tokens are still parseable here so their jti can be pinned
	// down before the revoked store forgets about them.
	claims, err := s.signer.ParseSkipExpiry(tokenString)
	if err != nil {
		s.metrics.RecordRevocation("noop")
		return nil
	}
	if claims.ClientID != callerClientID {
		s.metrics.RecordRevocation("noop")
		return nil
	}

	if err := s.store.CreateRevokedToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, util.SHA256Hex(tokenString)); err != nil {
		log.Printf("[Revoke] Cache invalidation failed: %v", err)
	}

	s.metrics.RecordRevocation("revoked")
	return nil
}

// revokeIssuedFromCode invalidates the token pair a consumed code
// produced, when a replay of that code is detected.
func (s *TokenService) revokeIssuedFromCode(ctx context.Context, codeHash string) {
	code, err := s.store.GetAuthorizationCodeByHash(ctx, codeHash)
	if err != nil {
		return
	}
	if code.IssuedAccessJTI == "" && code.IssuedRefreshJTI == "" {
		return
	}

	log.Printf("[Token] Code %s... replayed; revoking issued tokens", code.CodePrefix)

	// The exact exp of the issued tokens is not recorded; the refresh TTL
	// bounds both lifetimes for revoked-row retention.
	exp := timeNow().Add(s.config.RefreshTokenTTL)
	for _, jti := range []string{code.IssuedAccessJTI, code.IssuedRefreshJTI} {
		if jti == "" {
			continue
		}
		if err := s.store.CreateRevokedToken(ctx, jti, exp); err != nil {
			log.Printf("[Token] Failed to revoke jti after code replay: %v", err)
		}
	}
	for _, h := range []string{code.IssuedAccessHash, code.IssuedRefreshHash} {
		if h == "" {
			continue
		}
		if err := s.cache.Delete(ctx, h); err != nil {
			log.Printf("[Token] Cache invalidation failed after code replay: %v", err)
		}
	}
}

// grantResult maps a grant error onto its metrics label.
func grantResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidClient):
		return "invalid_client"
	case errors.Is(err, ErrUnauthorizedClient):
		return "unauthorized_client"
	case errors.Is(err, ErrInvalidGrant):
		return "invalid_grant"
	case errors.Is(err, ErrInvalidScope):
		return "invalid_scope"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrUnsupportedGrantType):
		return "unsupported_grant_type"
	default:
		return "server_error"
	}
}
