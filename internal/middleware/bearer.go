package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerToken gates a route group behind a static bearer token. An empty
// configured token leaves the group open, for dev setups and deployments
// that fence these routes at the network layer.
func BearerToken(token, realm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		provided, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="`+realm+`"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="`+realm+`"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		c.Next()
	}
}
