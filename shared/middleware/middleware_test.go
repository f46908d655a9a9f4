package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type claims struct{ Subject string }

func verifyFixed(token string) (*claims, bool) {
	if token != "good" {
		return nil, false
	}
	return &claims{Subject: "1"}, true
}

func TestSession(t *testing.T) {
	var got *claims
	var ok bool
	h := Session("token", verifyFixed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = ClaimsFromContext[*claims](r.Context())
	}))

	t.Run("valid cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "token", Value: "good"})
		h.ServeHTTP(httptest.NewRecorder(), r)

		assert.True(t, ok)
		assert.Equal(t, "1", got.Subject)
	})

	t.Run("invalid cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "token", Value: "forged"})
		h.ServeHTTP(httptest.NewRecorder(), r)

		assert.False(t, ok)
	})

	t.Run("no cookie", func(t *testing.T) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.False(t, ok)
	})
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := RequestLogger(&logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		r.RemoteAddr = "198.51.100.9:4000"
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
		h.ServeHTTP(rec, r)

		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), `"status":418`)
		assert.Contains(t, buf.String(), `"message":"inside"`)
		assert.Contains(t, buf.String(), `"path":"/api/health"`)
		assert.Contains(t, buf.String(), `"ip":"198.51.100.9"`)
	})

	t.Run("keeps incoming request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "abc-123")
		h.ServeHTTP(rec, r)

		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
	})
}
