package accesskit

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Middleware provides HTTP middleware for permission checking and audit
// context propagation.
type Middleware struct {
	service      *Service
	getUserID    func(*http.Request) int64
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := accesskit.NewMiddleware(service,
//	    accesskit.WithUserIDExtractor(func(r *http.Request) int64 {
//	        return sessionUserID(r)
//	    }),
//	)
func NewMiddleware(service *Service, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		getUserID:    defaultGetUserID,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserIDExtractor sets a custom function to extract the user ID from a
// request. Zero means unauthenticated.
func WithUserIDExtractor(fn func(*http.Request) int64) MiddlewareOption {
	return func(m *Middleware) {
		m.getUserID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetUserID(r *http.Request) int64 {
	return GetUserID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsUnauthorized(err):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case IsNotFound(err):
		http.Error(w, "Not Found", http.StatusNotFound)
	case IsConflict(err):
		http.Error(w, "Conflict", http.StatusConflict)
	case IsInvalidArgument(err):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// InjectAuditContext captures request metadata (client IP, user agent,
// request ID) plus the authenticated user into the request context so
// downstream operations carry it into the audit trail. A request without an
// X-Request-ID header gets a generated one.
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx = WithIPAddress(ctx, clientIP(r))
			ctx = WithUserAgent(ctx, r.UserAgent())
			ctx = WithRequestID(ctx, requestID)

			if userID := m.getUserID(r); userID != 0 {
				ctx = WithUserID(ctx, userID)
				ctx = WithActorID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission creates middleware that requires the authenticated user
// to hold a grant matching resource:action.
//
// Example:
//
//	router.With(mw.RequirePermission("document", "update")).
//	    Put("/documents/{id}", updateDocumentHandler)
func (m *Middleware) RequirePermission(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == 0 {
				m.errorHandler(w, r, ErrNoActorID)
				return
			}

			if !m.service.CheckPermission(ctx, userID, resource, action) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "missing required permission").
					WithGrant(resource, action).
					WithUser(userID))
				return
			}

			// Add checker to context for use in handlers
			checker, err := m.service.GetChecker(ctx, userID)
			if err == nil {
				r = r.WithContext(WithChecker(ctx, checker))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission creates middleware that passes when the user holds at
// least one of the given grants.
func (m *Middleware) RequireAnyPermission(grants []Grant) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == 0 {
				m.errorHandler(w, r, ErrNoActorID)
				return
			}

			checker, err := m.service.GetChecker(ctx, userID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			allowed := false
			for _, g := range grants {
				if checker.Allows(g.Resource, g.Action) {
					allowed = true
					break
				}
			}
			if !allowed {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "missing required permission").
					WithUser(userID))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithChecker(ctx, checker)))
		})
	}
}

// RequireAdmin creates middleware that requires the authenticated user to be
// an active holder of the admin role.
func (m *Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == 0 {
				m.errorHandler(w, r, ErrNoActorID)
				return
			}

			checker, err := m.service.GetChecker(ctx, userID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}
			if !checker.IsAdmin() {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "admin role required").
					WithUser(userID))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithChecker(ctx, checker)))
		})
	}
}

// LoadChecker creates middleware that loads the user's Checker into context
// without enforcing anything. Handlers can then make fine-grained decisions
// with GetChecker(ctx).
func (m *Middleware) LoadChecker() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := m.getUserID(r); userID != 0 {
				if checker, err := m.service.GetChecker(ctx, userID); err == nil {
					r = r.WithContext(WithChecker(ctx, checker))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the originating client address, preferring proxy headers
// over the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return host
}
