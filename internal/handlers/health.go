package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-identity/identity/internal/cache"
	"github.com/go-identity/identity/internal/services"
	"github.com/go-identity/identity/internal/store"
	"github.com/go-identity/identity/internal/version"
)

// HealthHandler reports process liveness and dependency reachability.
type HealthHandler struct {
	store *store.Store
	cache cache.Cache[services.IntrospectionResponse]
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(s *store.Store, c cache.Cache[services.IntrospectionResponse]) *HealthHandler {
	return &HealthHandler{store: s, cache: c}
}

// Health handles GET /healthz. A degraded cache does not fail the check;
// introspection survives without it.
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	dbState := "ok"
	if err := h.store.Health(c.Request.Context()); err != nil {
		dbState = "unreachable"
		status = http.StatusServiceUnavailable
	}

	cacheState := "ok"
	if err := h.cache.Health(c.Request.Context()); err != nil {
		cacheState = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   dbState,
		"cache":    cacheState,
		"version":  version.Version,
		"revision": version.Revision,
	})
}
