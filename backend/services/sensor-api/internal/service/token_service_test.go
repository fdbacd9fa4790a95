package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, secret string) *TokenService {
	t.Helper()
	svc, err := NewTokenService(secret, "HS256", 0)
	require.NoError(t, err)
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, "secret")

	token, err := svc.Issue("alice")
	require.NoError(t, err)

	subject, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", subject)
}

func TestTokenDefaultLifetime(t *testing.T) {
	svc := newTestTokenService(t, "secret")
	issuedAt := time.Date(2024, 12, 6, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue("alice")
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(DefaultTokenLifetime - time.Second) }
	_, err = svc.Verify(token)
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(DefaultTokenLifetime) }
	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenNegativeLifetimeIsExpired(t *testing.T) {
	svc := newTestTokenService(t, "secret")

	token, err := svc.IssueWithLifetime("alice", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestTokenService(t, "secret")
	other := newTestTokenService(t, "other-secret")

	forged, err := other.Issue("alice")
	require.NoError(t, err)

	expired, err := svc.IssueWithLifetime("alice", -time.Hour)
	require.NoError(t, err)

	valid, err := svc.Issue("alice")
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := NewTokenService("secret", "HS512", 0)
	require.NoError(t, err)
	otherAlg, err := hs512.Issue("alice")
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"forged":     forged,
		"expired":    expired,
		"tampered":   tampered,
		"none alg":   noneToken,
		"other alg":  otherAlg,
		"no expiry":  noExpiry,
		"no subject": noSubject,
		"garbage":    "not-a-token",
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			subject, err := svc.Verify(token)
			require.Equal(t, ErrInvalidToken, err)
			require.Empty(t, subject)
		})
	}
}

func TestNewTokenServiceValidation(t *testing.T) {
	_, err := NewTokenService("", "HS256", time.Minute)
	require.Error(t, err)

	_, err = NewTokenService("secret", "RS256", time.Minute)
	require.Error(t, err)

	svc, err := NewTokenService("secret", "hs384", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "HS384", svc.method.Alg())
	require.Equal(t, time.Minute, svc.expiresIn)

	svc, err = NewTokenService("secret", "", -time.Minute)
	require.NoError(t, err)
	require.Equal(t, "HS256", svc.method.Alg())
	require.Equal(t, DefaultTokenLifetime, svc.expiresIn)

	_, err = svc.Issue("")
	require.Error(t, err)
}
