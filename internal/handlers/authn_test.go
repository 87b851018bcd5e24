package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/motorpool/apiserver/internal/auth"
	"github.com/motorpool/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func principalEcho(got *auth.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokenService(t)
	ann := types.User{ID: 4, Email: "ann@x.io", Role: types.RoleUser}
	bob := types.User{ID: 9, Email: "bob@x.io", Role: types.RoleAdmin}

	t.Run("no token is anonymous", func(t *testing.T) {
		var got auth.Principal
		rec := httptest.NewRecorder()
		Authenticate(tokens)(principalEcho(&got)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, got.IsAuthenticated())
	})

	t.Run("bearer header", func(t *testing.T) {
		var got auth.Principal
		req := bearer(httptest.NewRequest(http.MethodGet, "/", nil), tokenFor(t, tokens, ann))
		Authenticate(tokens)(principalEcho(&got)).ServeHTTP(httptest.NewRecorder(), req)

		id, err := got.UserID()
		assert.NoError(t, err)
		assert.Equal(t, 4, id)
	})

	t.Run("cookie wins over header", func(t *testing.T) {
		var got auth.Principal
		req := bearer(httptest.NewRequest(http.MethodGet, "/", nil), tokenFor(t, tokens, ann))
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokenFor(t, tokens, bob)})
		Authenticate(tokens)(principalEcho(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "bob@x.io", got.Email())
	})

	t.Run("invalid cookie falls back to header", func(t *testing.T) {
		var got auth.Principal
		req := bearer(httptest.NewRequest(http.MethodGet, "/", nil), tokenFor(t, tokens, ann))
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "garbage"})
		Authenticate(tokens)(principalEcho(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "ann@x.io", got.Email())
	})

	t.Run("invalid token is anonymous", func(t *testing.T) {
		var got auth.Principal
		req := bearer(httptest.NewRequest(http.MethodGet, "/", nil), "not-a-jwt")
		Authenticate(tokens)(principalEcho(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.False(t, got.IsAuthenticated())
	})
}

func TestRouteGuards(t *testing.T) {
	tokens := newTokenService(t)
	userToken := tokenFor(t, tokens, types.User{ID: 1, Email: "u@x.io", Role: types.RoleUser})
	adminToken := tokenFor(t, tokens, types.User{ID: 2, Email: "a@x.io", Role: types.RoleAdmin})

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	adminOnly := Authenticate(tokens)(RequireRole(types.RoleAdmin)(ok))
	signedIn := Authenticate(tokens)(RequireAuthenticated(ok))

	tests := []struct {
		name    string
		handler http.Handler
		token   string
		want    int
	}{
		{"admin route, anonymous", adminOnly, "", http.StatusUnauthorized},
		{"admin route, invalid token", adminOnly, "bogus", http.StatusUnauthorized},
		{"admin route, user", adminOnly, userToken, http.StatusForbidden},
		{"admin route, admin", adminOnly, adminToken, http.StatusOK},
		{"signed-in route, anonymous", signedIn, "", http.StatusUnauthorized},
		{"signed-in route, user", signedIn, userToken, http.StatusOK},
		{"signed-in route, admin", signedIn, adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				bearer(req, tt.token)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
