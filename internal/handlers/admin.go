package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-identity/identity/internal/services"
	"github.com/go-identity/identity/internal/store"
)

// AdminHandler serves the management API for users and clients.
type AdminHandler struct {
	users   *services.UserService
	clients *services.ClientService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(us *services.UserService, cs *services.ClientService) *AdminHandler {
	return &AdminHandler{users: us, clients: cs}
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUser handles POST /api/v1/users.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email, and password are required"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, store.ErrUsernameConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		case errors.Is(err, store.ErrEmailConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// DeactivateUser handles DELETE /api/v1/users/:id. Deactivation, not
// deletion; the row stays for audit and foreign keys.
func (h *AdminHandler) DeactivateUser(c *gin.Context) {
	err := h.users.DeactivateUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate user"})
		return
	}
	c.Status(http.StatusNoContent)
}

type createClientRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	RedirectURIs []string `json:"redirect_uris"`
	GrantTypes   []string `json:"grant_types" binding:"required"`
	Scopes       string   `json:"scopes"`
}

// CreateClient handles POST /api/v1/clients. The response is the only
// place the plaintext secret ever appears.
func (h *AdminHandler) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and grant_types are required"})
		return
	}

	client, secret, err := h.clients.CreateClient(
		c.Request.Context(),
		req.Name, req.Description,
		req.RedirectURIs, req.GrantTypes, req.Scopes,
	)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create client"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"client_id":     client.ClientID,
		"client_secret": secret,
		"name":          client.Name,
		"redirect_uris": client.RedirectURIs,
		"grant_types":   client.GrantTypes,
		"scopes":        client.Scopes,
	})
}

// DeactivateClient handles DELETE /api/v1/clients/:client_id.
func (h *AdminHandler) DeactivateClient(c *gin.Context) {
	err := h.clients.DeactivateClient(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate client"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListClients handles GET /api/v1/clients. Secret hashes never leave the
// store layer.
func (h *AdminHandler) ListClients(c *gin.Context) {
	clients, err := h.clients.ListClients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list clients"})
		return
	}

	out := make([]gin.H, 0, len(clients))
	for _, cl := range clients {
		out = append(out, gin.H{
			"client_id":     cl.ClientID,
			"name":          cl.Name,
			"redirect_uris": cl.RedirectURIs,
			"grant_types":   cl.GrantTypes,
			"scopes":        cl.Scopes,
			"is_active":     cl.IsActive,
		})
	}
	c.JSON(http.StatusOK, gin.H{"clients": out})
}
