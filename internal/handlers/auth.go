package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/go-identity/identity/internal/services"
)

// AuthHandler establishes and tears down the browser session that the
// consent endpoints rely on.
type AuthHandler struct {
	users *services.UserAuthenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(ua *services.UserAuthenticator) *AuthHandler {
	return &AuthHandler{users: ua}
}

// Login handles POST /login. Success binds the user to the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.users.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, oauthError{
			Error:       "access_denied",
			Description: "Invalid username or password",
		})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, oauthError{Error: "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, oauthError{Error: "server_error"})
		return
	}
	c.Status(http.StatusNoContent)
}
