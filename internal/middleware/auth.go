package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/templui/stash/internal/ctxkeys"
	"github.com/templui/stash/internal/metrics"
	"github.com/templui/stash/internal/service"
)

// Auth resolves the session token to an account id and stores it in the
// context. The token is read from "Authorization: Bearer" first, then from the
// auth cookie. Requests without a valid token continue anonymously.
func Auth(authService *service.AuthService, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			accountID, err := authService.VerifyJWT(token)
			if err != nil {
				m.AuthRejected("invalid_token")
				if fromCookie {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithAccountID(r.Context(), accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) (token string, fromCookie bool) {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value), false
		}
		return "", false
	}

	cookie, err := r.Cookie(service.AuthCookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// RequireAuth rejects anonymous requests with 401 before the handler runs.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.AccountID(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
