package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civitas/pkg/domain"
	"civitas/pkg/requestcontext"
)

type staticValidator struct {
	userID id.UserID
	err    error
}

func (v *staticValidator) ValidateSubject(string) (id.UserID, error) {
	return v.userID, v.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// actorEcho records the actor id the middleware placed in the context.
func actorEcho(captured *id.UserID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = requestcontext.ActorID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	userID := id.NewUserID()

	t.Run("valid token injects the actor", func(t *testing.T) {
		var actor id.UserID
		h := RequireAuth(&staticValidator{userID: userID}, discardLogger())(actorEcho(&actor))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer some-token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID, actor)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		h := RequireAuth(&staticValidator{userID: userID}, discardLogger())(actorEcho(new(id.UserID)))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`, w.Body.String())
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		h := RequireAuth(&staticValidator{userID: userID}, discardLogger())(actorEcho(new(id.UserID)))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		h := RequireAuth(&staticValidator{err: errors.New("expired")}, discardLogger())(actorEcho(new(id.UserID)))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Invalid or expired token"}`, w.Body.String())
	})
}

func TestOptionalAuth(t *testing.T) {
	userID := id.NewUserID()

	t.Run("no token passes through anonymously", func(t *testing.T) {
		var actor id.UserID
		h := OptionalAuth(&staticValidator{userID: userID}, discardLogger())(actorEcho(&actor))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, actor.IsZero())
	})

	t.Run("valid token injects the actor", func(t *testing.T) {
		var actor id.UserID
		h := OptionalAuth(&staticValidator{userID: userID}, discardLogger())(actorEcho(&actor))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer some-token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID, actor)
	})

	t.Run("bad token is still rejected", func(t *testing.T) {
		h := OptionalAuth(&staticValidator{err: errors.New("expired")}, discardLogger())(actorEcho(new(id.UserID)))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id when absent", func(t *testing.T) {
		var captured string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = requestcontext.RequestID(r.Context())
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, captured)
		assert.Equal(t, captured, w.Header().Get("X-Request-ID"))
	})

	t.Run("echoes an inbound id", func(t *testing.T) {
		var captured string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = requestcontext.RequestID(r.Context())
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "inbound-42")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, "inbound-42", captured)
		assert.Equal(t, "inbound-42", w.Header().Get("X-Request-ID"))
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
