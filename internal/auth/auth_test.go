package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))
	assert.False(t, CheckPasswordHash("correct horse", "not-a-hash"))
}

func TestTokenRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewTokenIssuer("secret", time.Hour, clock)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	sub, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokenExpires(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewTokenIssuer("secret", time.Hour, clock)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, nil)
	other := NewTokenIssuer("other-secret", time.Hour, nil)

	foreign, err := other.Issue("user-1")
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"wrong secret": foreign,
		"no expiry":    noExpiry,
		"none alg":     noneAlg,
		"garbage":      "abc.def.ghi",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Validate(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
