package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker(t *testing.T) {
	ok := NewPingCheck(pingerFunc(func(context.Context) error { return nil }))
	down := NewPingCheck(pingerFunc(func(context.Context) error { return errors.New("connection refused") }))

	t.Run("no checks", func(t *testing.T) {
		s := NewCompositeHealthChecker("test").Check(context.Background())
		assert.True(t, s.Healthy)
		assert.True(t, s.Ready)
	})

	t.Run("all pass", func(t *testing.T) {
		c := NewCompositeHealthChecker("test")
		c.AddCheck("store", ok)
		c.AddOptionalCheck("lineup_cache", ok)

		s := c.Check(context.Background())
		assert.True(t, s.Healthy)
		assert.True(t, s.Ready)
		assert.Len(t, s.Checks, 2)
		assert.Equal(t, "test", s.Version)
	})

	t.Run("optional failure keeps ready", func(t *testing.T) {
		c := NewCompositeHealthChecker("test")
		c.AddCheck("store", ok)
		c.AddOptionalCheck("lineup_cache", down)

		s := c.Check(context.Background())
		assert.False(t, s.Healthy)
		assert.True(t, s.Ready)
		assert.Equal(t, "connection refused", s.Checks["lineup_cache"].Message)
		assert.True(t, s.Checks["lineup_cache"].Optional)
	})

	t.Run("required failure clears ready", func(t *testing.T) {
		c := NewCompositeHealthChecker("test")
		c.AddCheck("store", down)
		c.AddCheck("catalog", down)

		s := c.Check(context.Background())
		assert.False(t, s.Healthy)
		assert.False(t, s.Ready)
		assert.Equal(t, "Some checks failed: catalog, store", s.Message)
	})

	t.Run("check timeout", func(t *testing.T) {
		c := NewCompositeHealthChecker("test")
		c.SetTimeout(10 * time.Millisecond)
		c.AddCheck("slow", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		s := c.Check(context.Background())
		assert.False(t, s.Ready)
		assert.Contains(t, s.Checks["slow"].Message, "deadline")
	})
}

func newAuth(t *testing.T, keys ...string) *APIKeyAuth {
	t.Helper()
	hashes := make([]string, 0, len(keys))
	for _, k := range keys {
		h, err := HashAPIKey(k, bcrypt.MinCost)
		require.NoError(t, err)
		hashes = append(hashes, h)
	}
	return NewAPIKeyAuth("", hashes)
}

func TestAPIKeyAuth(t *testing.T) {
	auth := newAuth(t, "coach-key", "analyst-key")
	assert.True(t, auth.Enabled())
	assert.True(t, auth.IsValid("analyst-key"))
	assert.True(t, auth.IsValid("analyst-key"), "second lookup hits the verified set")
	assert.False(t, auth.IsValid("guess"))
	assert.False(t, auth.IsValid(""))

	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", DefaultAPIKeyHeader, "guess", http.StatusUnauthorized},
		{"header", DefaultAPIKeyHeader, "coach-key", http.StatusNoContent},
		{"bearer", "Authorization", "Bearer coach-key", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/compositions", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAPIKeyAuth_DisabledPassesThrough(t *testing.T) {
	auth := NewAPIKeyAuth("", []string{" ", ""})
	assert.False(t, auth.Enabled())

	rec := httptest.NewRecorder()
	auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"player_ids":[]}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mw("outer"), mw("inner"), SecurityHeadersMiddleware)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHashAPIKey_RejectsEmpty(t *testing.T) {
	_, err := HashAPIKey("  ", bcrypt.MinCost)
	assert.Error(t, err)
}
