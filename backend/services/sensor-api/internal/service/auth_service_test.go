package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"sensorhub/backend/services/sensor-api/internal/password"
)

func newTestAuthService(t *testing.T, repo UserRepository) *AuthService {
	t.Helper()
	tokens, err := NewTokenService("test-secret", "HS256", 0)
	require.NoError(t, err)
	return NewAuthService(repo, password.NewBcryptHasher(bcrypt.MinCost), tokens, zap.NewNop())
}

func TestRegisterLoginFlow(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "wonderland")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.NotEqual(t, "wonderland", repo.users["alice"].PasswordHash)

	_, err = svc.Register(ctx, "alice", "another")
	require.Equal(t, KindConflict, KindOf(err))
	require.True(t, errors.Is(err, ErrUsernameTaken))
	require.Equal(t, "Username already exists", DetailOf(err))

	_, err = svc.Login(ctx, "alice", "wrong")
	require.Equal(t, KindUnauthenticated, KindOf(err))
	require.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = svc.Login(ctx, "nobody", "wonderland")
	require.Equal(t, KindUnauthenticated, KindOf(err))
	require.Equal(t, DetailOf(err), "Invalid username or password")

	token, err := svc.Login(ctx, "alice", "wonderland")
	require.NoError(t, err)

	subject, err := svc.Authenticate(token)
	require.NoError(t, err)
	require.Equal(t, "alice", subject)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "  ", "pw")
	require.Equal(t, KindInvalidInput, KindOf(err))

	_, err = svc.Register(ctx, "bob", "")
	require.Equal(t, KindInvalidInput, KindOf(err))

	_, err = svc.Register(ctx, "bob", strings.Repeat("p", 100))
	require.Equal(t, KindInvalidInput, KindOf(err))

	_, err = svc.Login(ctx, "", "")
	require.Equal(t, KindInvalidInput, KindOf(err))
}

func TestRegisterTrimsUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, " carol ", "pw")
	require.NoError(t, err)
	require.Contains(t, repo.users, "carol")

	_, err = svc.Login(ctx, "carol", "pw")
	require.NoError(t, err)
}

func TestAuthRepositoryFaultsAreInternal(t *testing.T) {
	repo := newFakeUserRepo()
	repo.err = errors.New("disk full")
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw")
	require.Equal(t, KindInternal, KindOf(err))
	require.Equal(t, InternalDetail, DetailOf(err))

	_, err = svc.Login(ctx, "alice", "pw")
	require.Equal(t, KindInternal, KindOf(err))
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.Authenticate("garbage")
	require.Equal(t, KindUnauthenticated, KindOf(err))
	require.Equal(t, "Invalid or expired token", DetailOf(err))
}

func TestKindOfForeignErrors(t *testing.T) {
	require.Equal(t, KindInternal, KindOf(errors.New("boom")))
	require.Equal(t, InternalDetail, DetailOf(errors.New("boom")))
}
