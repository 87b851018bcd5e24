package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordCost is the lowest bcrypt cost accepted by NewBcryptHasher.
const MinPasswordCost = 10

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrEmptyPassword   = errors.New("password must not be empty")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

// IsInvalidPassword reports whether err rejects the password itself rather
// than signalling a hashing fault.
func IsInvalidPassword(err error) bool {
	return errors.Is(err, ErrEmptyPassword) || errors.Is(err, ErrPasswordTooLong)
}

// BcryptHasher hashes and verifies passwords with bcrypt. The salt and cost
// are embedded in every digest.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, raised to MinPasswordCost when lower.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < MinPasswordCost {
		cost = MinPasswordCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt digest of plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is a
// mismatch, not an error.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
