package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bearerRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", BearerToken(token, "test"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doGet(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerToken(t *testing.T) {
	t.Run("Empty configured token leaves the route open", func(t *testing.T) {
		w := doGet(bearerRouter(""), "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Correct token passes", func(t *testing.T) {
		w := doGet(bearerRouter("s3cret"), "Bearer s3cret")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Missing header answers 401 with a challenge", func(t *testing.T) {
		w := doGet(bearerRouter("s3cret"), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, `Bearer realm="test"`, w.Header().Get("WWW-Authenticate"))
	})

	t.Run("Wrong token answers 401", func(t *testing.T) {
		w := doGet(bearerRouter("s3cret"), "Bearer wrong")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Non-bearer scheme answers 401", func(t *testing.T) {
		w := doGet(bearerRouter("s3cret"), "Basic czNjcmV0")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
