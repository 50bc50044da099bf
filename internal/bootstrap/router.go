package bootstrap

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-identity/identity/internal/config"
	"github.com/go-identity/identity/internal/metrics"
	"github.com/go-identity/identity/internal/middleware"
)

// setupRouter configures the Gin router with all routes and middleware.
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	recorder metrics.Recorder,
) *gin.Engine {
	r := gin.New()

	r.Use(middleware.HTTPMetrics(recorder))
	r.Use(gin.Logger(), gin.Recovery())

	setupSessionMiddleware(r, cfg)

	r.GET("/healthz", h.health.Health)
	r.GET("/.well-known/jwks.json", h.jwks.JWKS)

	setupMetricsEndpoint(r, cfg)

	r.POST("/login", h.auth.Login)
	r.POST("/logout", h.auth.Logout)

	oauth := r.Group("/oauth2")
	{
		oauth.POST("/token", h.token.Token)
		oauth.POST("/introspect", h.token.Introspect)
		oauth.POST("/revoke", h.token.Revoke)

		oauth.GET("/authorize", h.authorization.Authorize)
		oauth.POST("/authorize/approve", h.authorization.Approve)
		oauth.POST("/authorize/deny", h.authorization.Deny)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.BearerToken(cfg.AdminToken, "identity-admin"))
	{
		api.POST("/users", h.admin.CreateUser)
		api.DELETE("/users/:id", h.admin.DeactivateUser)
		api.POST("/clients", h.admin.CreateClient)
		api.DELETE("/clients/:client_id", h.admin.DeactivateClient)
		api.GET("/clients", h.admin.ListClients)
	}

	return r
}

func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("identity_session", sessionStore))
}

func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("[Bootstrap] Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("[Bootstrap] Prometheus metrics at /metrics (bearer auth)")
		r.GET(
			"/metrics",
			middleware.BearerToken(cfg.MetricsToken, "identity-metrics"),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("[Bootstrap] Prometheus metrics at /metrics")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}
