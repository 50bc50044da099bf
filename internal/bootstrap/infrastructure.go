package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/go-identity/identity/internal/cache"
	"github.com/go-identity/identity/internal/hash"
	"github.com/go-identity/identity/internal/metrics"
	"github.com/go-identity/identity/internal/services"
	"github.com/go-identity/identity/internal/store"
	"github.com/go-identity/identity/internal/token"
)

const cacheKeyPrefix = "identity:introspect:"

func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = store.New(app.Config.DatabaseDriver, app.Config.DatabaseDSN)
	if err != nil {
		return err
	}
	log.Printf("[Bootstrap] Database ready (driver=%s)", app.Config.DatabaseDriver)

	app.Signer, err = token.NewSigner(
		app.Config.JWTPrivateKey,
		app.Config.JWTPublicKey,
		app.Config.Issuer,
		app.Config.JWTKeyID,
		app.Config.ClockSkew,
	)
	if err != nil {
		return err
	}

	app.Hasher, err = hash.New(app.Config.BcryptCost)
	if err != nil {
		return err
	}

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)
	app.Cache = initializeCache(app.Config.RedisAddr, app.Config.RedisPassword, app.Config.RedisDB)

	return nil
}

func (app *Application) initializeServices() error {
	app.ClientAuthenticator = services.NewClientAuthenticator(app.DB, app.MetricsRecorder)

	var err error
	app.UserAuthenticator, err = services.NewUserAuthenticator(app.DB, app.Hasher, app.MetricsRecorder)
	if err != nil {
		return err
	}

	app.AuthorizationService = services.NewAuthorizationService(app.DB, app.Config)
	app.TokenService = services.NewTokenService(
		app.DB,
		app.Config,
		app.Signer,
		app.ClientAuthenticator,
		app.UserAuthenticator,
		app.Cache,
		app.MetricsRecorder,
	)
	app.UserService = services.NewUserService(app.DB, app.Hasher)
	app.ClientService = services.NewClientService(app.DB, app.Config)

	return nil
}

// initializeCache selects Redis when an address is configured and falls
// back to the in-process cache otherwise. A Redis that is down at boot is
// a startup failure, not a silent fallback.
func initializeCache(addr, password string, db int) cache.Cache[services.IntrospectionResponse] {
	if addr == "" {
		log.Printf("[Bootstrap] Introspection cache: in-memory")
		return cache.NewMemoryCache[services.IntrospectionResponse]()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := cache.NewRueidisCache[services.IntrospectionResponse](ctx, addr, password, db, cacheKeyPrefix)
	if err != nil {
		log.Fatalf("[Bootstrap] Redis cache unavailable at %s: %v", addr, err)
	}
	log.Printf("[Bootstrap] Introspection cache: redis (%s)", addr)
	return c
}
