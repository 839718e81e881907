package httpapi

import (
	"context"
	"net/http"

	"task-portal/auth"
)

const sessionCookie = "taskportal_session"

type ctxKey string

const ctxClaims ctxKey = "claims"

// withSession resolves the caller's identity from the session cookie, if any.
// Handlers that require authentication use claimsFrom and return 401 when the
// request carries no valid token.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err == nil && cookie.Value != "" {
			if claims, err := auth.ValidateToken(s.secret, cookie.Value); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxClaims, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(ctxClaims).(*auth.Claims)
	return claims, ok
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && origin == s.allowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
