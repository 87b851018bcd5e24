package handlers

import (
	"net/http"
	"strings"

	"github.com/motorpool/apiserver/internal/auth"
	"github.com/motorpool/apiserver/types"
)

const AccessTokenCookie = "access_token"

// TokenAuthenticator turns a raw token into a principal.
type TokenAuthenticator interface {
	Authenticate(raw string) (auth.Principal, error)
}

// Authenticate attaches a principal to every request. The access_token
// cookie is tried first, then the bearer header. Requests without a valid
// token continue as anonymous; rejecting them is up to the route guards.
func Authenticate(tokens TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.Anonymous()
			for _, raw := range requestTokens(r) {
				if p, err := tokens.Authenticate(raw); err == nil {
					principal = p
					break
				}
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAuthenticated rejects anonymous requests with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.PrincipalFrom(r.Context()).IsAuthenticated() {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits only principals holding role: anonymous requests get
// 401, authenticated ones without the role get 403.
func RequireRole(role types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFrom(r.Context())
			if !principal.IsAuthenticated() {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !auth.Authorize(role, principal) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestTokens(r *http.Request) []string {
	var tokens []string
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}
	if token, ok := bearerToken(r); ok {
		tokens = append(tokens, token)
	}
	return tokens
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, auth.TokenType) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
