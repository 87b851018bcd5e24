package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(MinPasswordCost)

	digest, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", digest)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, MinPasswordCost, cost)

	assert.True(t, h.Verify("secret1", digest))
	assert.False(t, h.Verify("secret2", digest))
}

func TestBcryptHasher_SaltsEveryDigest(t *testing.T) {
	h := NewBcryptHasher(MinPasswordCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_RaisesLowCost(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	assert.Equal(t, MinPasswordCost, h.cost)
}

func TestBcryptHasher_MalformedDigestIsMismatch(t *testing.T) {
	h := NewBcryptHasher(MinPasswordCost)

	for _, digest := range []string{"", "plain-text", "$2a$10$short", strings.Repeat("$", 60)} {
		assert.False(t, h.Verify("secret1", digest), "digest %q", digest)
	}
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	_, err := NewBcryptHasher(MinPasswordCost).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestBcryptHasher_ByteLimit(t *testing.T) {
	h := NewBcryptHasher(MinPasswordCost)

	digest, err := h.Hash(strings.Repeat("p", MaxPasswordBytes))
	require.NoError(t, err)
	assert.True(t, h.Verify(strings.Repeat("p", MaxPasswordBytes), digest))

	for _, plain := range []string{strings.Repeat("p", 73), strings.Repeat("p", 80), strings.Repeat("é", 40)} {
		_, err := h.Hash(plain)
		assert.ErrorIs(t, err, ErrPasswordTooLong, "%d bytes", len(plain))
		assert.True(t, IsInvalidPassword(err))
	}
	assert.False(t, IsInvalidPassword(bcrypt.ErrHashTooShort))
}
