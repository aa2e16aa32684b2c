package handlers

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"palabritas/internal/models"
	"palabritas/internal/security"
	"palabritas/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	StudentContextKey ContextKey = "student"
)

const sessionCookieName = "session_id"

// Middleware holds dependencies for middleware functions.
type Middleware struct {
	authService *service.AuthService
	rateLimiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance.
func NewMiddleware(authService *service.AuthService, rateLimiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		rateLimiter: rateLimiter,
	}
}

// RequireAuth requires a valid adult session cookie or bearer token.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := m.resolveUser(r)
		if user == nil {
			respondError(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), UserContextKey, user)))
	}
}

// RequireRole requires an authenticated user with one of the given roles.
func (m *Middleware) RequireRole(roles ...models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			for _, role := range roles {
				if user.Role == role {
					next(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "insufficient role", nil)
		})
	}
}

// RequireStudent requires a valid student (access-code) session.
func (m *Middleware) RequireStudent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		student, err := m.authService.ValidateStudentSession(r.Context(), cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, sessionCookieName))
			respondError(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), StudentContextKey, student)))
	}
}

// RateLimit throttles by client IP.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.rateLimiter.Allow(clientIP(r)) {
			respondError(w, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		next(w, r)
	}
}

func (m *Middleware) resolveUser(r *http.Request) *models.User {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		user, err := m.authService.VerifyToken(r.Context(), strings.TrimPrefix(auth, "Bearer "))
		if err == nil {
			return user
		}
		return nil
	}

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	user, err := m.authService.ValidateSession(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return user
}

// Logging logs every request with its duration.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetUserFromContext retrieves the user from the request context.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetStudentFromContext retrieves the student from the request context.
func GetStudentFromContext(ctx context.Context) *models.Student {
	student, ok := ctx.Value(StudentContextKey).(*models.Student)
	if !ok {
		return nil
	}
	return student
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
