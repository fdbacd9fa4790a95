package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const subjectKey contextKey = "subject"

const (
	detailNotAuthenticated = "Not authenticated"
	detailInvalidToken     = "Invalid or expired token"
	queryTokenParam        = "access_token"
)

// Authenticator verifies a bearer token and returns its subject.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// AuthOption tweaks bearer extraction.
type AuthOption func(*authConfig)

type authConfig struct {
	allowQueryToken bool
}

// AllowQueryToken also accepts the token from the access_token query parameter.
// Browsers cannot set headers on websocket handshakes.
func AllowQueryToken() AuthOption {
	return func(c *authConfig) { c.allowQueryToken = true }
}

// AuthMiddleware validates bearer tokens and stores the subject in the request context.
func AuthMiddleware(auth Authenticator, opts ...AuthOption) func(http.Handler) http.Handler {
	var cfg authConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok && cfg.allowQueryToken {
				token = strings.TrimSpace(r.URL.Query().Get(queryTokenParam))
				ok = token != ""
			}
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
				return
			}

			subject, err := auth.Authenticate(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeDetail(w, http.StatusUnauthorized, detailInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// SubjectFromContext retrieves the authenticated username.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok && subject != ""
}
