package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-identity/identity/internal/services"
)

// oauthError is the RFC 6749 §5.2 error body.
type oauthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// writeTokenError maps a service error onto the RFC 6749 §5.2 wire form.
// invalid_client gets 401 plus a WWW-Authenticate challenge; everything
// else the client caused gets 400.
func writeTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidClient):
		c.Header("WWW-Authenticate", `Basic realm="identity"`)
		c.JSON(http.StatusUnauthorized, oauthError{
			Error:       "invalid_client",
			Description: "Client authentication failed",
		})
	case errors.Is(err, services.ErrUnauthorizedClient):
		c.JSON(http.StatusBadRequest, oauthError{
			Error:       "unauthorized_client",
			Description: "Client is not allowed to use this grant type",
		})
	case errors.Is(err, services.ErrInvalidGrant):
		c.JSON(http.StatusBadRequest, oauthError{
			Error:       "invalid_grant",
			Description: "The provided grant is invalid, expired, or revoked",
		})
	case errors.Is(err, services.ErrInvalidScope):
		c.JSON(http.StatusBadRequest, oauthError{
			Error:       "invalid_scope",
			Description: "Requested scope exceeds what the client or grant allows",
		})
	case errors.Is(err, services.ErrUnsupportedGrantType):
		c.JSON(http.StatusBadRequest, oauthError{
			Error:       "unsupported_grant_type",
			Description: "Supported grant types: password, authorization_code, refresh_token, client_credentials",
		})
	case errors.Is(err, services.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, oauthError{
			Error:       "invalid_request",
			Description: "The request is missing a required parameter or is malformed",
		})
	default:
		c.JSON(http.StatusInternalServerError, oauthError{
			Error: "server_error",
		})
	}
}

// clientCredentials pulls client authentication from the request, preferring
// HTTP Basic (RFC 6749 §2.3.1) over form-body parameters.
func clientCredentials(c *gin.Context) (clientID, clientSecret string) {
	if id, secret, ok := c.Request.BasicAuth(); ok {
		return id, secret
	}
	return c.PostForm("client_id"), c.PostForm("client_secret")
}
