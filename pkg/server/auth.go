package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gridflux/gridflux/pkg/log"
)

// authMiddleware guards the API. Reads pass through; mutating calls need a
// verified bearer token unless auth is bypassed.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))
		r = r.WithContext(ctx)

		if r.Method == http.MethodGet || s.bypassAuth {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, "missing auth header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Ctx(ctx).ErrorContext(ctx, "invalid auth header")
			writeJSONError(w, "invalid auth header", http.StatusBadRequest)
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		idToken, err := s.verifier(ctx, token)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to verify token", slog.Any("error", err))
			writeJSONError(w, "invalid token", http.StatusUnauthorized)
			return
		}
		log.Ctx(ctx).InfoContext(ctx, "authenticated request", slog.String("subject", idToken.Subject))

		next.ServeHTTP(w, r)
	})
}
