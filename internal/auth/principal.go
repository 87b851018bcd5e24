package auth

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/motorpool/apiserver/types"
)

var (
	// ErrUnauthenticated means the request carried no valid token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNoUserID means the token was valid but none of the id claims held
	// a usable integer.
	ErrNoUserID = errors.New("authenticated principal has no usable user id")
)

// Claim lookup keys, tried in order. The first key whose value parses wins;
// values are never merged across keys.
var (
	UserIDClaims      = []string{"nameid", ClaimSubject, "id"}
	EmailClaims       = []string{ClaimEmail}
	DisplayNameClaims = []string{"name", "unique_name"}
	RoleClaims        = []string{ClaimRole}
)

// Principal is the read-only identity of the current request. The zero value
// is the anonymous principal.
type Principal struct {
	authenticated bool
	claims        jwt.MapClaims
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// NewPrincipal builds an authenticated principal from already validated
// claims. The claim set is copied.
func NewPrincipal(claims jwt.MapClaims) Principal {
	copied := make(jwt.MapClaims, len(claims))
	for k, v := range claims {
		copied[k] = v
	}
	return Principal{authenticated: true, claims: copied}
}

func (p Principal) IsAuthenticated() bool {
	return p.authenticated
}

// UserID resolves the numeric user id. It returns ErrUnauthenticated for the
// anonymous principal and ErrNoUserID when no id claim parses.
func (p Principal) UserID() (int, error) {
	if !p.authenticated {
		return 0, ErrUnauthenticated
	}
	for _, key := range UserIDClaims {
		if id, ok := parseIntClaim(p.claims[key]); ok {
			return id, nil
		}
	}
	return 0, ErrNoUserID
}

func (p Principal) Email() string {
	return p.firstString(EmailClaims)
}

func (p Principal) DisplayName() string {
	return p.firstString(DisplayNameClaims)
}

// Role returns the principal's role, or false if none of the role claims
// name a known role.
func (p Principal) Role() (types.Role, bool) {
	if !p.authenticated {
		return types.RoleUnknown, false
	}
	for _, key := range RoleClaims {
		raw, ok := p.claims[key].(string)
		if !ok {
			continue
		}
		if role, err := types.ParseRole(raw); err == nil {
			return role, true
		}
	}
	return types.RoleUnknown, false
}

func (p Principal) HasRole(role types.Role) bool {
	got, ok := p.Role()
	return ok && role.Valid() && got == role
}

func (p Principal) firstString(keys []string) string {
	if !p.authenticated {
		return ""
	}
	for _, key := range keys {
		if value, ok := p.claims[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntClaim(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return id, true
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, or the anonymous
// principal when none was attached.
func PrincipalFrom(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous()
}
