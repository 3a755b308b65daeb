package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"thrivepath/internal/logger"
	"thrivepath/internal/models"
	"thrivepath/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	AccountContextKey ContextKey = "account"
	LoggerContextKey  ContextKey = "logger"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService) *Middleware {
	return &Middleware{authService: authService}
}

// RequireAuth resolves the bearer token into the current account
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondWithError(w, r, http.StatusUnauthorized, "Not authenticated", "", nil)
			return
		}

		account, err := m.authService.ResolveCurrentAccount(r.Context(), token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondWithServiceError(w, r, err, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), AccountContextKey, account)
		ctx = context.WithValue(ctx, LoggerContextKey, loggerFrom(ctx).With("account_id", account.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole rejects authenticated callers whose role is not role
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	message := fmt.Sprintf("Access denied. Only %ss can access this resource.", role)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := currentAccount(r)
			if account == nil || account.Role != role {
				respondWithError(w, r, http.StatusForbidden, message, "", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// currentAccount returns the account stored by RequireAuth
func currentAccount(r *http.Request) *models.Account {
	account, _ := r.Context().Value(AccountContextKey).(*models.Account)
	return account
}

var nopLogger = logger.NewNop()

func loggerFrom(ctx context.Context) *logger.Logger {
	if log, ok := ctx.Value(LoggerContextKey).(*logger.Logger); ok && log != nil {
		return log
	}
	return nopLogger
}

// RequestLogger stores a request-scoped logger in the context and logs every
// request once it completes, at a level chosen by the status code.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log
			if id := middleware.GetReqID(r.Context()); id != "" {
				reqLog = log.With("request_id", id)
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := context.WithValue(r.Context(), LoggerContextKey, reqLog)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", ww.BytesWritten(),
			}
			switch {
			case status >= 500:
				reqLog.Error("HTTP request", fields...)
			case status >= 400:
				reqLog.Warn("HTTP request", fields...)
			default:
				reqLog.Info("HTTP request", fields...)
			}
		})
	}
}

// rateLimited builds the rejection handler for the login rate limiter
func rateLimited(window time.Duration) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		respondWithError(w, r, http.StatusTooManyRequests, "Too many requests. Please try again later.", "", nil)
	}
}
