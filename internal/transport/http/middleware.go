package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quiz-api/internal/domain"
)

type userKey struct{}

// requireAuth resolves the bearer token to a user and stores it in the
// request context. Handlers behind it trust that user for the whole request.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			s.metrics.AuthFailure("no_token")
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		user, err := s.auth.Authenticate(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrTokenInvalid):
			s.metrics.AuthFailure("token_invalid")
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		case errors.Is(err, domain.ErrUserNotFound):
			s.metrics.AuthFailure("user_not_found")
			writeError(w, http.StatusUnauthorized, "Not authorized, user not found")
			return
		default:
			s.writeServiceError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey{}).(domain.User)
	return user, ok
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// observe logs every request and records it in the metrics registry under
// its chi route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.ObserveRequest(r.Method, route, status, elapsed.Seconds())
		s.log.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
