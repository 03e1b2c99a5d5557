package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/al3xb0/mindpal-task/internal/auth"
	"github.com/al3xb0/mindpal-task/internal/config"
	apierrors "github.com/al3xb0/mindpal-task/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		assert.Equal(t, seen, r.Context().Value(RequestIDKey))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_KeepsClientValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	rec := httptest.NewRecorder()
	RequestID(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	logger := zap.NewNop()
	h := RequestID(Recovery(apierrors.NewHandler(logger), logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apierrors.KindInternal, resp.ErrorCode)
	assert.Equal(t, "An unexpected error occurred", resp.Message)
	assert.Equal(t, "req-7", resp.RequestID)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(okHandler())

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	logger := zap.NewNop()
	rl := NewRateLimiter(1, 1, apierrors.NewHandler(logger), logger)
	h := RequestID(rl.Limit(okHandler()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apierrors.KindRateLimited, resp.ErrorCode)
	assert.Equal(t, "req-8", resp.RequestID)
}

func TestAuth(t *testing.T) {
	jwtAuth := auth.NewJWTAuth(config.AuthConfig{JWTSecret: "secret", Issuer: "character-hub"})
	token, err := jwtAuth.GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	type result struct {
		user    string
		hasUser bool
		err     error
	}
	capture := func(out *result) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out.user, out.hasUser = auth.UserFromContext(r.Context())
			_, out.err = auth.ContextIdentity{}.CurrentUser(r.Context())
		})
	}

	t.Run("valid token", func(t *testing.T) {
		var got result
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		Auth(jwtAuth, zap.NewNop())(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, got.hasUser)
		assert.Equal(t, "user-1", got.user)
		assert.NoError(t, got.err)
	})

	t.Run("no token", func(t *testing.T) {
		var got result
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		Auth(jwtAuth, zap.NewNop())(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.False(t, got.hasUser)
		assert.NoError(t, got.err)
	})

	t.Run("invalid token", func(t *testing.T) {
		var got result
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		Auth(jwtAuth, zap.NewNop())(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.False(t, got.hasUser)
		assert.Error(t, got.err)
	})

	t.Run("disabled", func(t *testing.T) {
		var got result
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		Auth(nil, zap.NewNop())(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.False(t, got.hasUser)
	})
}

func TestTimeout(t *testing.T) {
	t.Run("bounds the request context", func(t *testing.T) {
		h := Timeout(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deadline, ok := r.Context().Deadline()
			require.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})

	t.Run("zero disables the bound", func(t *testing.T) {
		h := Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := r.Context().Deadline()
			assert.False(t, ok)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(mark("a"), mark("b"), mark("c"))(okHandler()).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}
