package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-identity/identity/internal/services"
)

// TokenHandler serves the token, introspection, and revocation endpoints.
type TokenHandler struct {
	tokenService *services.TokenService
	clients      *services.ClientAuthenticator
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(ts *services.TokenService, ca *services.ClientAuthenticator) *TokenHandler {
	return &TokenHandler{tokenService: ts, clients: ca}
}

// Token handles POST /oauth2/token (RFC 6749 §3.2). The grant dispatch
// happens in the service; this layer only parses the form and shapes the
// wire response.
func (h *TokenHandler) Token(c *gin.Context) {
	clientID, clientSecret := clientCredentials(c)

	req := services.IssueRequest{
		GrantType:    c.PostForm("grant_type"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Username:     c.PostForm("username"),
		Password:     c.PostForm("password"),
		Code:         c.PostForm("code"),
		RedirectURI:  c.PostForm("redirect_uri"),
		CodeVerifier: c.PostForm("code_verifier"),
		RefreshToken: c.PostForm("refresh_token"),
		Scope:        c.PostForm("scope"),
	}

	resp, err := h.tokenService.Issue(c.Request.Context(), req)
	if err != nil {
		writeTokenError(c, err)
		return
	}

	// RFC 6749 §5.1: token responses must never be cached
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(http.StatusOK, resp)
}

// Introspect handles POST /oauth2/introspect (RFC 7662). The caller must
// authenticate as a client; the response never distinguishes why a token
// is inactive.
func (h *TokenHandler) Introspect(c *gin.Context) {
	clientID, clientSecret := clientCredentials(c)
	client, err := h.clients.Authenticate(c.Request.Context(), clientID, clientSecret, "")
	if err != nil {
		writeTokenError(c, services.ErrInvalidClient)
		return
	}

	resp := h.tokenService.Introspect(c.Request.Context(), c.PostForm("token"), client.ClientID)
	c.JSON(http.StatusOK, resp)
}

// Revoke handles POST /oauth2/revoke (RFC 7009). Revocation of unknown or
// foreign tokens still answers 200 so the endpoint cannot be used to probe
// for live tokens.
func (h *TokenHandler) Revoke(c *gin.Context) {
	clientID, clientSecret := clientCredentials(c)
	client, err := h.clients.Authenticate(c.Request.Context(), clientID, clientSecret, "")
	if err != nil {
		writeTokenError(c, services.ErrInvalidClient)
		return
	}

	err = h.tokenService.Revoke(
		c.Request.Context(),
		c.PostForm("token"),
		c.PostForm("token_type_hint"),
		client.ClientID,
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedTokenType):
			c.JSON(http.StatusBadRequest, oauthError{
				Error:       "unsupported_token_type",
				Description: "token_type_hint must be access_token or refresh_token",
			})
		case errors.Is(err, services.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, oauthError{
				Error:       "invalid_request",
				Description: "token parameter is required",
			})
		default:
			c.JSON(http.StatusInternalServerError, oauthError{Error: "server_error"})
		}
		return
	}

	c.Status(http.StatusOK)
}
