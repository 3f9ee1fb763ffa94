//	@title			Staff Photo API
//	@version		1.0
//	@description	Employee photo collection: direct-to-storage uploads, an image proxy and an admin moderation API.
//
//	@host		localhost:8080
//	@BasePath	/api
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						auth_token
//	@description				Admin session set by POST /api/admin/login.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/staffphoto/service/internal/auth"
	"github.com/staffphoto/service/internal/config"
	"github.com/staffphoto/service/internal/db"
	"github.com/staffphoto/service/internal/employee"
	appMiddleware "github.com/staffphoto/service/internal/middleware"
	"github.com/staffphoto/service/internal/photo"
	"github.com/staffphoto/service/internal/proxy"
	"github.com/staffphoto/service/internal/storage"

	_ "github.com/staffphoto/service/docs/swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.Database)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	observer, err := storage.NewObserver(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("storage metrics: %v", err)
	}
	gateway, err := newGateway(ctx, cfg, observer)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	httpMetrics, err := appMiddleware.NewHTTPMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("http metrics: %v", err)
	}

	// Wire dependencies: repository → service → handler
	employeeRepo := employee.NewRepository(pool)
	photoRepo := photo.NewRepository(pool)
	photoSvc := photo.NewService(employeeRepo, photoRepo, gateway, db.NewTransactionManager(pool), photo.Settings{
		Departments:    cfg.Departments,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})

	authSvc, err := auth.NewService(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	router := newRouter(routerDeps{
		corsOrigins: cfg.CORSAllowedOrigins,
		proxyPath:   cfg.Proxy.Path,
		gatherer:    prometheus.DefaultGatherer,
		metrics:     httpMetrics,
		limiter:     appMiddleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute),
		sessions:    authSvc,
		photos:      photo.NewHandler(photoSvc),
		auth:        auth.NewHandler(authSvc, cfg.IsProduction()),
		proxy:       proxy.NewHandler(proxy.NewFetcher(cfg.Proxy, nil)),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s, storage=%s)", cfg.Port, cfg.AppEnv, cfg.Storage.Provider)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}

// newGateway builds the storage provider named by STORAGE_PROVIDER.
func newGateway(ctx context.Context, cfg *config.Config, observer *storage.Observer) (storage.Gateway, error) {
	urls := storage.URLBuilder{Domain: cfg.Storage.Domain, ProxyPath: cfg.Proxy.Path}

	switch cfg.Storage.Provider {
	case "minio":
		return storage.NewMinioGateway(ctx, cfg.Storage, urls, observer)
	case "s3":
		g := storage.NewS3Gateway(cfg.Storage, urls, observer)
		if err := g.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}
