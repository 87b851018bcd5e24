package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/motorpool/apiserver/config"
	"github.com/motorpool/apiserver/types"
)

// TokenType is the scheme clients use when presenting a token in the
// Authorization header.
const TokenType = "Bearer"

// Claim names written into issued tokens.
const (
	ClaimSubject = "sub"
	ClaimEmail   = "email"
	ClaimRole    = "role"
	ClaimID      = "jti"
)

// ErrInvalidToken wraps every validation failure. Callers treat it as
// "unauthenticated" regardless of the underlying cause.
var ErrInvalidToken = errors.New("invalid token")

// AuthToken is a signed, time-bounded token handed to a client. It is never
// persisted.
type AuthToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ID        string    `json:"-"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 JWTs.
type TokenService struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService builds a token service from validated JWT configuration.
// The key material is copied so later changes to cfg cannot affect it.
func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &TokenService{
		key:      []byte(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      time.Duration(cfg.ExpirationMinutes) * time.Minute,
		now:      time.Now,
	}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// ExpiryFor returns the expiry of a token issued at now.
func (s *TokenService) ExpiryFor(now time.Time) time.Time {
	return now.Add(s.ttl)
}

// Issue signs a new token for user. Issue times are truncated to whole
// seconds because JWT numeric dates carry no finer precision; this keeps
// ExpiresAt exactly IssuedAt + TTL.
func (s *TokenService) Issue(user types.User) (AuthToken, error) {
	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := s.ExpiryFor(issuedAt)
	jti := uuid.NewString()

	claims := tokenClaims{
		Email: user.Email,
		Role:  user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return AuthToken{}, fmt.Errorf("sign token: %w", err)
	}

	return AuthToken{
		Token:     signed,
		TokenType: TokenType,
		ID:        jti,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate checks signature, algorithm, issuer, audience and expiry with no
// clock-skew tolerance and returns the token's claims.
func (s *TokenService) Validate(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := s.newParser().ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate validates raw and derives the Principal it carries. Any
// failure yields the anonymous principal together with the error.
func (s *TokenService) Authenticate(raw string) (Principal, error) {
	claims, err := s.Validate(raw)
	if err != nil {
		return Anonymous(), err
	}
	return NewPrincipal(claims), nil
}

func (s *TokenService) newParser() *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(s.validationTime),
	)
}

// validationTime is the clock seen by the parser. jwt rejects a token once
// now is not before exp; stepping back one nanosecond keeps the exp instant
// itself valid. Issued tokens carry no nbf claim, so only expiry is affected.
func (s *TokenService) validationTime() time.Time {
	return s.now().Add(-time.Nanosecond)
}
