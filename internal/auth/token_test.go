// ABOUTME: Unit tests for session token signing and verification
// ABOUTME: Tests valid tokens, tampered tokens, expiry, issuer binding and weak secrets

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-for-jwt-signing!")

func newTestVerifier(t *testing.T) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)
	return v
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	verifier := newTestVerifier(t)

	for _, sessionID := range []string{"session-1", "session-2", "0192f0c4-7d3e-7a4b-9c1d-2e3f4a5b6c7d"} {
		token, err := verifier.Generate(sessionID, time.Hour)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		got, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, sessionID, got)
	}
}

func TestJWTVerifier_InvalidToken(t *testing.T) {
	verifier := newTestVerifier(t)

	other, err := NewJWTVerifier([]byte("a-completely-different-secret!!!"))
	require.NoError(t, err)
	foreign, err := other.Generate("session-1", time.Hour)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "session-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not-a-jwt-token"},
		{"malformed JWT", "header.payload.signature"},
		{"wrong secret", foreign},
		{"unsigned", noneToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("session-1", -time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTVerifier_MissingSubject(t *testing.T) {
	verifier := newTestVerifier(t)

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"no subject", jwt.MapClaims{"iss": Issuer, "exp": time.Now().Add(time.Hour).Unix()}},
		{"no expiry", jwt.MapClaims{"iss": Issuer, "sub": "session-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString(testSecret)
			require.NoError(t, err)

			_, err = verifier.Verify(token)
			assert.ErrorIs(t, err, ErrMissingClaim)
		})
	}
}

func TestJWTVerifier_WrongIssuer(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "someone-else",
		"sub": "session-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_UsesClock(t *testing.T) {
	verifier := newTestVerifier(t)
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	verifier.now = func() time.Time { return issued }

	token, err := verifier.Generate("session-1", time.Minute)
	require.NoError(t, err)

	verifier.now = func() time.Time { return issued.Add(30 * time.Second) }
	_, err = verifier.Verify(token)
	require.NoError(t, err)

	verifier.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewJWTVerifier_RejectsShortSecret(t *testing.T) {
	_, err := NewJWTVerifier([]byte("short"))
	assert.ErrorIs(t, err, ErrWeakSecret)
}
