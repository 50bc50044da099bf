package bootstrap

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-identity/identity/internal/cache"
	"github.com/go-identity/identity/internal/config"
	"github.com/go-identity/identity/internal/handlers"
	"github.com/go-identity/identity/internal/hash"
	"github.com/go-identity/identity/internal/metrics"
	"github.com/go-identity/identity/internal/services"
	"github.com/go-identity/identity/internal/store"
	"github.com/go-identity/identity/internal/token"
)

// Application holds all initialized components.
type Application struct {
	Config *config.Config

	// Infrastructure
	DB              *store.Store
	Signer          *token.Signer
	Hasher          *hash.Hasher
	Cache           cache.Cache[services.IntrospectionResponse]
	MetricsRecorder metrics.Recorder

	// Services
	ClientAuthenticator  *services.ClientAuthenticator
	UserAuthenticator    *services.UserAuthenticator
	AuthorizationService *services.AuthorizationService
	TokenService         *services.TokenService
	UserService          *services.UserService
	ClientService        *services.ClientService

	// HTTP
	Handlers handlerSet
	Router   *gin.Engine
	Server   *http.Server
}

type handlerSet struct {
	token         *handlers.TokenHandler
	authorization *handlers.AuthorizationHandler
	auth          *handlers.AuthHandler
	jwks          *handlers.JWKSHandler
	health        *handlers.HealthHandler
	admin         *handlers.AdminHandler
}

// Run wires the application together and serves until shutdown.
func Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	app := &Application{Config: cfg}

	if err := app.initializeInfrastructure(); err != nil {
		return err
	}
	if err := app.initializeServices(); err != nil {
		return err
	}
	app.initializeHTTPLayer()

	app.startWithGracefulShutdown()
	return nil
}

func (app *Application) initializeHTTPLayer() {
	app.Handlers = handlerSet{
		token:         handlers.NewTokenHandler(app.TokenService, app.ClientAuthenticator),
		authorization: handlers.NewAuthorizationHandler(app.AuthorizationService),
		auth:          handlers.NewAuthHandler(app.UserAuthenticator),
		jwks:          handlers.NewJWKSHandler(app.Signer),
		health:        handlers.NewHealthHandler(app.DB, app.Cache),
		admin:         handlers.NewAdminHandler(app.UserService, app.ClientService),
	}

	app.Router = setupRouter(app.Config, app.Handlers, app.MetricsRecorder)
	app.Server = createHTTPServer(app.Config, app.Router)
}
