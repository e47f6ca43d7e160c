package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gamecatalog/internal/analytics"
	"gamecatalog/internal/catalog"
	"gamecatalog/internal/httpx"
	"gamecatalog/internal/ingest"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type routerDeps struct {
	DB             pinger
	Catalog        *catalog.HTTPHandler
	Analytics      *analytics.HTTPHandler
	Jobs           *ingest.HTTPHandler
	InternalSecret string
	Limiter        *httpx.RateLimiter
	Logger         *slog.Logger
}

func newRouter(d routerDeps) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /v1/games", d.Catalog.List)
	router.HandleFunc("GET /v1/games/calendar", d.Catalog.Calendar)
	router.HandleFunc("GET /v1/games/{appid}", d.Catalog.GetByAppID)
	router.HandleFunc("GET /v1/analytics/genres", d.Analytics.Genres)
	router.HandleFunc("GET /v1/analytics/trends", d.Analytics.Trends)

	internal := httpx.RequireSecret(d.InternalSecret)
	router.Handle("POST /internal/jobs/sync", internal(http.HandlerFunc(d.Jobs.Sync)))
	router.Handle("GET /internal/jobs/sync/runs", internal(http.HandlerFunc(d.Jobs.Runs)))

	mws := []func(http.Handler) http.Handler{
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(d.Logger),
		httpx.RecoveryMiddleware,
	}
	if d.Limiter != nil {
		mws = append(mws, d.Limiter.Middleware)
	}
	mws = append(mws, httpx.SecurityHeadersMiddleware(false), httpx.RequestSizeLimitMiddleware(1<<20))
	return httpx.Chain(router, mws...)
}
