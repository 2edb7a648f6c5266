package accesskit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInjectAuditContext tests request metadata capture
func TestInjectAuditContext(t *testing.T) {
	mw := NewMiddleware(nil, WithUserIDExtractor(func(r *http.Request) int64 {
		return 42
	}))

	var captured AuditContext
	var userID int64
	handler := mw.InjectAuditContext()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetAuditContext(r.Context())
		userID = GetUserID(r.Context())
	}))

	t.Run("proxy headers win", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		req.Header.Set("User-Agent", "test-agent/1.0")
		req.Header.Set("X-Request-ID", "req-abc")

		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "203.0.113.9", captured.IPAddress)
		assert.Equal(t, "test-agent/1.0", captured.UserAgent)
		assert.Equal(t, "req-abc", captured.RequestID)
		assert.Equal(t, int64(42), captured.ActorID)
		assert.Equal(t, int64(42), userID)
	})

	t.Run("x-real-ip fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "203.0.113.7")

		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "203.0.113.7", captured.IPAddress)
	})

	t.Run("remote addr fallback strips port", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"

		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "192.0.2.1", captured.IPAddress)
	})

	t.Run("missing request id is generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEmpty(t, captured.RequestID)
	})
}

// TestDefaultErrorHandler tests the error-to-status mapping
func TestDefaultErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", NewError(ErrUnauthorized, "denied"), http.StatusForbidden},
		{"missing actor", ErrNoActorID, http.StatusForbidden},
		{"not found", NewError(ErrNotFound, "nope"), http.StatusNotFound},
		{"conflict", NewError(ErrConflict, "dup"), http.StatusConflict},
		{"version mismatch", ErrVersionMismatch, http.StatusConflict},
		{"invalid argument", NewError(ErrInvalidKind, "bad kind"), http.StatusBadRequest},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			defaultErrorHandler(rec, req, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

// TestRequirePermissionUnauthenticated tests the no-user short circuit
func TestRequirePermissionUnauthenticated(t *testing.T) {
	mw := NewMiddleware(nil) // service never reached without a user

	called := false
	handler := mw.RequirePermission("document", "read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestRequireAdminUnauthenticated tests the no-user short circuit for admin
func TestRequireAdminUnauthenticated(t *testing.T) {
	mw := NewMiddleware(nil)

	called := false
	handler := mw.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
