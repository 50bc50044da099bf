package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-identity/identity/internal/token"
)

// JWKSHandler publishes the verification key set (RFC 7517).
type JWKSHandler struct {
	signer *token.Signer
}

// NewJWKSHandler creates a new JWKS handler
func NewJWKSHandler(s *token.Signer) *JWKSHandler {
	return &JWKSHandler{signer: s}
}

// JWKS handles GET /.well-known/jwks.json. The set is precomputed at
// startup; resource servers may cache it freely.
func (h *JWKSHandler) JWKS(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/json", h.signer.JWKS())
}
