package main

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/staffphoto/service/internal/auth"
	appMiddleware "github.com/staffphoto/service/internal/middleware"
	"github.com/staffphoto/service/internal/photo"
	"github.com/staffphoto/service/internal/proxy"
)

// routerDeps are the handlers and middleware the router mounts.
type routerDeps struct {
	corsOrigins []string
	proxyPath   string
	gatherer    prometheus.Gatherer
	metrics     *appMiddleware.HTTPMetrics
	limiter     *appMiddleware.RateLimiter
	sessions    appMiddleware.TokenVerifier
	photos      *photo.Handler
	auth        *auth.Handler
	proxy       *proxy.Handler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	if d.metrics != nil {
		r.Use(d.metrics.Handler)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: !slices.Contains(d.corsOrigins, "*"),
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Get(d.proxyPath, d.proxy.ImageProxy)

	r.Route("/api", func(r chi.Router) {
		// Public upload endpoints
		r.Get("/download-url", d.photos.DownloadURL)
		r.Group(func(r chi.Router) {
			r.Use(d.limiter.Limit)
			r.Get("/upload-token", d.photos.UploadToken)
			r.Post("/save-employee", d.photos.SaveEmployee)
			r.Post("/upload", d.photos.Upload)
			r.Post("/admin/login", d.auth.Login)
		})
		r.Post("/admin/logout", d.auth.Logout)

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireSession(d.sessions))
			r.Get("/photos", d.photos.ListPhotos)
			r.Post("/update-status", d.photos.UpdateStatus)
			r.Delete("/delete-photo", d.photos.DeletePhoto)
			r.Get("/refresh-image-url", d.photos.RefreshImageURL)
		})
	})

	return r
}
