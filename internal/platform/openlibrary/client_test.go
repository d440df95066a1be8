package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SearchBooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "subject:horror", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "bookshelf-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"numFound":1,"docs":[{"key":"/works/OL81613W","title":"It","author_name":["Stephen King"],"first_publish_year":1986}]}`))
	}))
	defer srv.Close()

	c := NewClient("bookshelf-test", 100, 0, WithBaseURL(srv.URL))
	res, err := c.SearchBooks(context.Background(), "horror", 5)
	require.NoError(t, err)
	require.Len(t, res.Docs, 1)
	assert.Equal(t, "It", res.Docs[0].Title)
	assert.Equal(t, []string{"Stephen King"}, res.Docs[0].AuthorNames)
	assert.Equal(t, int64(1986), res.Docs[0].FirstPublishYear)
}

func TestClient_Retries(t *testing.T) {
	t.Run("server errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"numFound":0,"docs":[]}`))
		}))
		defer srv.Close()

		c := NewClient("t", 1000, 2, WithBaseURL(srv.URL), WithBackoff(time.Millisecond))
		_, err := c.SearchBooks(context.Background(), "x", 1)
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient("t", 1000, 1, WithBaseURL(srv.URL), WithBackoff(time.Millisecond))
		_, err := c.SearchBooks(context.Background(), "x", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 1 retries")
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewClient("t", 1000, 3, WithBaseURL(srv.URL), WithBackoff(time.Millisecond))
		_, err := c.SearchBooks(context.Background(), "x", 1)
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}
