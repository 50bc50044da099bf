package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/appleboy/graceful"

	"github.com/go-identity/identity/internal/config"
	"github.com/go-identity/identity/internal/store"
)

func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addExpiredRowSweeperJob(m, app.DB)
	addCacheShutdownJob(m, app.Cache.Close)

	log.Printf("[Bootstrap] Listening on %s (issuer=%s)", app.Config.ServerAddr, app.Config.Issuer)
	<-m.Done()
}

func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addExpiredRowSweeperJob periodically drops expired authorization codes
// and revoked-token rows whose tokens could no longer validate anyway.
func addExpiredRowSweeperJob(m *graceful.Manager, db *store.Store) {
	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweepExpiredRows(ctx, db)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func sweepExpiredRows(ctx context.Context, db *store.Store) {
	if n, err := db.DeleteExpiredAuthorizationCodes(ctx); err != nil {
		log.Printf("[Sweeper] Failed to delete expired authorization codes: %v", err)
	} else if n > 0 {
		log.Printf("[Sweeper] Deleted %d expired authorization codes", n)
	}

	if n, err := db.DeleteExpiredRevokedTokens(ctx); err != nil {
		log.Printf("[Sweeper] Failed to delete expired revoked tokens: %v", err)
	} else if n > 0 {
		log.Printf("[Sweeper] Deleted %d expired revoked-token rows", n)
	}
}

func addCacheShutdownJob(m *graceful.Manager, closer func() error) {
	m.AddShutdownJob(func() error {
		if err := closer(); err != nil {
			log.Printf("Error closing introspection cache: %v", err)
			return err
		}
		log.Println("Introspection cache closed")
		return nil
	})
}
