package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenLifetime applies when no lifetime is configured.
const DefaultTokenLifetime = 15 * time.Minute

// ErrInvalidToken is the single outcome of every failed verification.
var ErrInvalidToken = errors.New("token: invalid or expired")

var supportedAlgorithms = map[string]jwt.SigningMethod{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// TokenService issues and verifies HMAC signed JWT bearer tokens. Verification is
// stateless; there is no revocation list.
type TokenService struct {
	secret    []byte
	method    jwt.SigningMethod
	expiresIn time.Duration
	now       func() time.Time
}

// NewTokenService returns configured token service. An empty algorithm means HS256 and a
// non-positive lifetime means DefaultTokenLifetime.
func NewTokenService(secret, algorithm string, expiresIn time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token: secret is required")
	}
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := supportedAlgorithms[strings.ToUpper(algorithm)]
	if !ok {
		return nil, fmt.Errorf("token: unsupported algorithm %q", algorithm)
	}
	if expiresIn <= 0 {
		expiresIn = DefaultTokenLifetime
	}
	return &TokenService{
		secret:    []byte(secret),
		method:    method,
		expiresIn: expiresIn,
		now:       time.Now,
	}, nil
}

// Issue signs a token for subject with the configured lifetime.
func (t *TokenService) Issue(subject string) (string, error) {
	return t.IssueWithLifetime(subject, t.expiresIn)
}

// IssueWithLifetime signs a token expiring at now+lifetime. A non-positive lifetime
// produces a token that is already expired.
func (t *TokenService) IssueWithLifetime(subject string, lifetime time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token: subject is required")
	}

	now := t.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
	}

	token := jwt.NewWithClaims(t.method, claims)
	return token.SignedString(t.secret)
}

// Verify checks signature, algorithm and expiry (strictly now < exp) and returns the
// subject. Every failure is reported as ErrInvalidToken.
func (t *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
