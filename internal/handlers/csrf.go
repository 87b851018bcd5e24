package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
)

const (
	CSRFCookieName = "XSRF-TOKEN"
	CSRFHeaderName = "X-CSRF-Token"

	csrfTokenBytes = 32
)

// csrfGuarded lists the methods that must carry a matching token pair.
// DELETE is deliberately absent.
var csrfGuarded = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// CSRFGuard enforces the double-submit cookie check: the XSRF-TOKEN cookie
// and the X-CSRF-Token header must both be present and byte-equal. Other
// methods pass through untouched.
func CSRFGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !csrfGuarded[r.Method] {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(CSRFHeaderName)
		cookie, err := r.Cookie(CSRFCookieName)
		if err != nil || cookie.Value == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewCSRFToken returns a random URL-safe token for the XSRF-TOKEN cookie.
func NewCSRFToken() (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
