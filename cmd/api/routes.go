package main

import (
	"context"
	"net/http"
	"time"

	"bookshelf/internal/auth"
	"bookshelf/internal/book"
	"bookshelf/internal/httpx"
	"bookshelf/internal/ingest"
)

func (app *application) routes() http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := app.books.Ping(ctx); err != nil {
			httpx.JSONErrorWithRequest(r, w, http.StatusServiceUnavailable, "NOT_READY", "Database not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	books := book.NewHTTPHandler(app.books)
	var create http.Handler = http.HandlerFunc(books.Create)
	if app.cfg.JWTSecret != "" {
		create = httpx.Chain(create,
			httpx.AuthMiddleware(app.cfg.JWTSecret),
			httpx.RequireRole(auth.RoleAdmin, auth.RoleEditor),
		)
	}
	router.Handle("POST /v1/books", create)
	router.HandleFunc("GET /v1/books", books.List)
	router.HandleFunc("GET /v1/books/lookup", books.Lookup)

	if app.ingest != nil {
		var job http.Handler = http.HandlerFunc(ingest.NewHTTPHandler(app.ingest).Ingest)
		if app.cfg.JWTSecret != "" {
			job = httpx.Chain(job, httpx.AuthMiddleware(app.cfg.JWTSecret), httpx.RequireRole(auth.RoleAdmin))
		}
		router.Handle("POST /v1/jobs/ingest", job)
	}

	mws := []func(http.Handler) http.Handler{
		httpx.RecoveryMiddleware(app.logger),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(app.logger),
		httpx.SecurityHeadersMiddleware(app.cfg.EnableHSTS),
		httpx.CORSMiddleware(app.cfg.AllowedOrigins),
		httpx.RequestSizeLimitMiddleware(app.cfg.MaxBodyBytes),
	}
	if app.limiter != nil {
		mws = append(mws, app.limiter.Middleware)
	}
	return httpx.Chain(router, mws...)
}
