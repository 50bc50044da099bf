package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/go-identity/identity/internal/services"
)

// AuthorizationHandler serves the authorization endpoint and the consent
// decision endpoints of the authorization code flow.
type AuthorizationHandler struct {
	authorizationService *services.AuthorizationService
}

// NewAuthorizationHandler creates a new authorization handler
func NewAuthorizationHandler(as *services.AuthorizationService) *AuthorizationHandler {
	return &AuthorizationHandler{authorizationService: as}
}

// authorizeRequestFrom collects the authorize parameters from query (GET)
// or form (POST) values.
func authorizeRequestFrom(get func(string) string) services.AuthorizeRequest {
	return services.AuthorizeRequest{
		ResponseType:        get("response_type"),
		ClientID:            get("client_id"),
		RedirectURI:         get("redirect_uri"),
		Scope:               get("scope"),
		State:               get("state"),
		CodeChallenge:       get("code_challenge"),
		CodeChallengeMethod: get("code_challenge_method"),
	}
}

// Authorize handles GET /oauth2/authorize. A valid request yields the
// consent context the authorization UI needs; the code itself is only
// minted on approval.
func (h *AuthorizationHandler) Authorize(c *gin.Context) {
	req := authorizeRequestFrom(c.Query)

	ac, err := h.authorizationService.ValidateAuthorizeRequest(c.Request.Context(), req)
	if err != nil {
		h.writeAuthorizeError(c, req, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_id":   ac.Client.ClientID,
		"client_name": ac.Client.Name,
		"scope":       ac.Scope,
		"state":       ac.State,
	})
}

// Approve handles POST /oauth2/authorize/approve. The consenting user is
// the session user; a user_id form value is only honored when no session
// is established.
func (h *AuthorizationHandler) Approve(c *gin.Context) {
	req := authorizeRequestFrom(c.PostForm)

	userID := sessionUserID(c)
	if userID == "" {
		userID = c.PostForm("user_id")
	}
	if userID == "" {
		c.JSON(http.StatusUnauthorized, oauthError{
			Error:       "access_denied",
			Description: "No authenticated user for consent",
		})
		return
	}

	redirect, err := h.authorizationService.Approve(c.Request.Context(), req, userID)
	if err != nil {
		h.writeAuthorizeError(c, req, err)
		return
	}
	c.Redirect(http.StatusFound, redirect)
}

// Deny handles POST /oauth2/authorize/deny.
func (h *AuthorizationHandler) Deny(c *gin.Context) {
	req := authorizeRequestFrom(c.PostForm)

	redirect, err := h.authorizationService.Deny(c.Request.Context(), req)
	if err != nil {
		h.writeAuthorizeError(c, req, err)
		return
	}
	c.Redirect(http.StatusFound, redirect)
}

// writeAuthorizeError reports an authorize failure. Client and redirect
// URI failures must never redirect (RFC 6749 §4.1.2.1); everything past a
// validated redirect URI is reported via redirect parameters.
func (h *AuthorizationHandler) writeAuthorizeError(c *gin.Context, req services.AuthorizeRequest, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidClient):
		c.JSON(http.StatusBadRequest, oauthError{
			Error:       "invalid_request",
			Description: "Unknown or inactive client",
		})
		return
	case errors.Is(err, services.ErrInvalidRedirectURI):
		c.JSON(http.StatusBadRequest, oauthError{
			Error:       "invalid_request",
			Description: "redirect_uri is missing or not registered for this client",
		})
		return
	}

	u, parseErr := url.Parse(req.RedirectURI)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, oauthError{Error: "invalid_request"})
		return
	}
	q := u.Query()
	q.Set("error", authorizeErrorCode(err))
	if req.State != "" {
		q.Set("state", req.State)
	}
	u.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, u.String())
}

// authorizeErrorCode maps service errors onto RFC 6749 §4.1.2.1 codes.
func authorizeErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrUnauthorizedClient):
		return "unauthorized_client"
	case errors.Is(err, services.ErrInvalidScope):
		return "invalid_scope"
	case errors.Is(err, services.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, services.ErrPKCERequired),
		errors.Is(err, services.ErrInvalidRequest):
		return "invalid_request"
	default:
		return "server_error"
	}
}

func sessionUserID(c *gin.Context) string {
	session := sessions.Default(c)
	if v, ok := session.Get("user_id").(string); ok {
		return v
	}
	return ""
}
