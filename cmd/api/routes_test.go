package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/auth"
	"bookshelf/internal/config"
	"bookshelf/internal/testutil"
)

const testSecret = "routes-test-secret"

func newTestRouter(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	store := testutil.NewSQLiteStore(t)
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	app := newApplication(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), store.Books)
	t.Cleanup(app.close)
	return app.routes()
}

func serve(h http.Handler, r *http.Request) testutil.RecordResponse {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return testutil.RecordHTTPResponse(w)
}

func TestV1Routing(t *testing.T) {
	router := newTestRouter(t, config.Config{JWTSecret: testSecret})
	editor := testutil.GenerateTestToken(testSecret, "curator", auth.RoleEditor)
	it := `{"name":"It","author":"Stephen King","year_published":1989,"book_type":"horror"}`

	t.Run("health", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(router, testutil.NewRequest(http.MethodGet, "/healthz", nil)).Code)
		assert.Equal(t, http.StatusOK, serve(router, testutil.NewRequest(http.MethodGet, "/readyz", nil)).Code)
	})

	t.Run("create requires a token", func(t *testing.T) {
		resp := serve(router, testutil.NewRequest(http.MethodPost, "/v1/books", it))
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		expired := testutil.GenerateExpiredToken(testSecret, "curator", auth.RoleEditor)
		resp = serve(router, testutil.NewRequestWithAuth(http.MethodPost, "/v1/books", it, expired))
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		reader := testutil.GenerateTestToken(testSecret, "curator", "READER")
		resp = serve(router, testutil.NewRequestWithAuth(http.MethodPost, "/v1/books", it, reader))
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("create then look up", func(t *testing.T) {
		resp := serve(router, testutil.NewRequestWithAuth(http.MethodPost, "/v1/books", it, editor))
		require.Equal(t, http.StatusCreated, resp.Code)
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

		resp = serve(router, testutil.NewRequest(http.MethodGet, "/v1/books/lookup?name=It&author=Stephen+King", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		data := resp.Body["data"].(map[string]any)
		assert.Equal(t, "It", data["name"])
		assert.Equal(t, float64(1989), data["year_published"])
		assert.Equal(t, "horror", data["book_type"])
		assert.Equal(t, "available", data["status"])
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		resp := serve(router, testutil.NewRequestWithAuth(http.MethodPost, "/v1/books", it, editor))
		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "CONFLICT", resp.ErrorCode())
	})

	t.Run("invalid batch stores nothing", func(t *testing.T) {
		body := `[
			{"name":"Misery","author":"Stephen King","year_published":1987,"book_type":"thriller"},
			{"name":"Cujo","author":"Stephen King","year_published":"1981","book_type":"horror"}
		]`
		resp := serve(router, testutil.NewRequestWithAuth(http.MethodPost, "/v1/books", body, editor))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Equal(t, "CONSTRAINT_VIOLATION", resp.ErrorCode())

		resp = serve(router, testutil.NewRequest(http.MethodGet, "/v1/books/lookup?name=Misery", nil))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("list", func(t *testing.T) {
		resp := serve(router, testutil.NewRequest(http.MethodGet, "/v1/books?author=Stephen+King", nil))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, resp.Body["data"], 1)
		meta := resp.Body["meta"].(map[string]any)
		assert.Equal(t, float64(1), meta["total"])
		assert.NotEmpty(t, meta["request_id"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp := serve(router, testutil.NewRequest(http.MethodDelete, "/v1/books", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	})

	t.Run("v1 prefix required", func(t *testing.T) {
		resp := serve(router, testutil.NewRequest(http.MethodGet, "/books", nil))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestRoutes_OpenWritesWithoutSecret(t *testing.T) {
	router := newTestRouter(t, config.Config{})
	resp := serve(router, testutil.NewRequest(http.MethodPost, "/v1/books",
		`{"name":"Kindred","author":"Octavia E. Butler","year_published":1979,"book_type":"novel"}`))
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestRoutes_RateLimit(t *testing.T) {
	router := newTestRouter(t, config.Config{RateLimitRPS: 0.001, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, serve(router, testutil.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	resp := serve(router, testutil.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp.ErrorCode())
}

func TestRoutes_IngestJob(t *testing.T) {
	t.Run("not mounted unless enabled", func(t *testing.T) {
		router := newTestRouter(t, config.Config{})
		resp := serve(router, testutil.NewRequest(http.MethodPost, "/v1/jobs/ingest", nil))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("admin only", func(t *testing.T) {
		router := newTestRouter(t, config.Config{
			JWTSecret: testSecret,
			Ingest:    config.Ingest{Enabled: true, Subjects: []string{"horror"}, RPS: 1},
		})
		editor := testutil.GenerateTestToken(testSecret, "curator", auth.RoleEditor)
		resp := serve(router, testutil.NewRequestWithAuth(http.MethodPost, "/v1/jobs/ingest", nil, editor))
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}
