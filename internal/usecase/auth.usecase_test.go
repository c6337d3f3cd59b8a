package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"accounts-service/internal/domain"
	"accounts-service/pkg/id"
	"accounts-service/pkg/jwtutil"
	"accounts-service/pkg/xerrors"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessionRepo struct {
	created     []*domain.Session
	deactivated []string
	lookups     int
}

func (f *fakeSessionRepo) Create(_ context.Context, s *domain.Session) error {
	cp := *s
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeSessionRepo) GetActiveByToken(_ context.Context, token string) (*domain.Session, error) {
	f.lookups++
	for _, s := range f.created {
		if s.AuthToken == token && s.IsActive && s.ExpiresAt.After(time.Now()) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) DeactivateByToken(_ context.Context, token string) error {
	for _, s := range f.created {
		if s.AuthToken == token {
			s.IsActive = false
		}
	}
	f.deactivated = append(f.deactivated, token)
	return nil
}

type fakeSessionCache struct {
	entries map[string]string
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{entries: map[string]string{}}
}

func (f *fakeSessionCache) Set(_ context.Context, ns, key string, value interface{}, _ time.Duration) error {
	f.entries[ns+":"+key] = fmt.Sprint(value)
	return nil
}

func (f *fakeSessionCache) Get(_ context.Context, ns, key string) (string, error) {
	v, ok := f.entries[ns+":"+key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return v, nil
}

func (f *fakeSessionCache) Delete(_ context.Context, ns, key string) error {
	delete(f.entries, ns+":"+key)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthUsecase, *AccountUsecase, *fakeUserRepo, *fakeSessionRepo, *fakeAuditRepo) {
	return newAuthFixtureWithCache(t, nil)
}

func newAuthFixtureWithCache(t *testing.T, cache SessionCache) (*AuthUsecase, *AccountUsecase, *fakeUserRepo, *fakeSessionRepo, *fakeAuditRepo) {
	t.Helper()
	sf, err := id.NewSnowflake(1)
	require.NoError(t, err)

	users := newFakeUserRepo()
	sessions := &fakeSessionRepo{}
	auditRepo := &fakeAuditRepo{}

	accounts := NewAccountUsecase(users, sf, zap.NewNop())
	audit := NewAuditUsecase(auditRepo, nil, sf, zap.NewNop())
	jwtGen := jwtutil.NewGenerator([]byte("test-secret"), time.Hour)
	auth := NewAuthUsecase(users, sessions, cache, audit, jwtGen, zap.NewNop())

	return auth, accounts, users, sessions, auditRepo
}

func TestLoginHappyPath(t *testing.T) {
	auth, accounts, users, sessions, auditRepo := newAuthFixture(t)
	ctx := context.Background()

	u, err := accounts.CreateUser(ctx, "harry@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)
	require.NoError(t, users.SetActive(ctx, u.ID, true))

	res, err := auth.Login(ctx, "Harry@EXAMPLE.com", "Str0ngpass", "203.0.113.9", "curl/8.0")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.NotEmpty(t, res.SessionID)
	require.Equal(t, u.ID, res.User.ID)
	require.True(t, res.ExpiresAt.After(time.Now()))

	require.Len(t, sessions.created, 1)
	require.Equal(t, res.Token, sessions.created[0].AuthToken)
	require.True(t, sessions.created[0].IsActive)

	require.Len(t, auditRepo.attempts, 1)
	require.True(t, auditRepo.attempts[0].Successful)
	require.Equal(t, "203.0.113.9", auditRepo.attempts[0].IPAddress)

	// issued token authenticates as the user
	userID, err := auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, userID)
}

func TestLoginWrongPasswordStillRecorded(t *testing.T) {
	auth, accounts, users, sessions, auditRepo := newAuthFixture(t)
	ctx := context.Background()

	u, err := accounts.CreateUser(ctx, "ivy@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)
	require.NoError(t, users.SetActive(ctx, u.ID, true))

	_, err = auth.Login(ctx, "ivy@example.com", "wrong-guess", "203.0.113.9", "curl/8.0")
	require.ErrorIs(t, err, xerrors.ErrInvalidCredentials)

	require.Empty(t, sessions.created)
	require.Len(t, auditRepo.attempts, 1)
	require.False(t, auditRepo.attempts[0].Successful)
}

func TestLoginUnknownEmail(t *testing.T) {
	auth, _, _, sessions, auditRepo := newAuthFixture(t)

	_, err := auth.Login(context.Background(), "ghost@example.com", "Str0ngpass", "203.0.113.9", "curl/8.0")
	require.ErrorIs(t, err, xerrors.ErrInvalidCredentials)
	require.Empty(t, sessions.created)
	require.Empty(t, auditRepo.attempts)
}

func TestLoginInactiveAccount(t *testing.T) {
	auth, accounts, _, sessions, auditRepo := newAuthFixture(t)
	ctx := context.Background()

	_, err := accounts.CreateUser(ctx, "jack@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)

	_, err = auth.Login(ctx, "jack@example.com", "Str0ngpass", "203.0.113.9", "curl/8.0")
	require.ErrorIs(t, err, xerrors.ErrAccountInactive)

	// password was right, so the attempt is logged as successful
	require.Len(t, auditRepo.attempts, 1)
	require.True(t, auditRepo.attempts[0].Successful)
	require.Empty(t, sessions.created)
}

func TestLogoutRevokesToken(t *testing.T) {
	auth, accounts, users, sessions, _ := newAuthFixture(t)
	ctx := context.Background()

	u, err := accounts.CreateUser(ctx, "kate@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)
	require.NoError(t, users.SetActive(ctx, u.ID, true))

	res, err := auth.Login(ctx, "kate@example.com", "Str0ngpass", "203.0.113.9", "curl/8.0")
	require.NoError(t, err)

	_, err = auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, res.Token))
	require.Len(t, sessions.created, 1)
	require.False(t, sessions.created[0].IsActive)

	// the JWT is still within its validity window, but the session is gone
	_, err = auth.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, xerrors.ErrUnauthorized)

	// logging out twice is harmless
	require.NoError(t, auth.Logout(ctx, res.Token))
}

func TestAuthenticateCachesSessionAndLogoutEvicts(t *testing.T) {
	cache := newFakeSessionCache()
	auth, accounts, users, sessions, _ := newAuthFixtureWithCache(t, cache)
	ctx := context.Background()

	u, err := accounts.CreateUser(ctx, "liam@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)
	require.NoError(t, users.SetActive(ctx, u.ID, true))

	res, err := auth.Login(ctx, "liam@example.com", "Str0ngpass", "203.0.113.9", "curl/8.0")
	require.NoError(t, err)

	_, err = auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, 1, sessions.lookups)

	require.NoError(t, auth.Logout(ctx, res.Token))
	require.Empty(t, cache.entries)

	_, err = auth.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, xerrors.ErrUnauthorized)
	require.Equal(t, 2, sessions.lookups)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	auth, _, _, _, _ := newAuthFixture(t)

	_, err := auth.Authenticate(context.Background(), "not.a.token")
	require.ErrorIs(t, err, xerrors.ErrUnauthorized)
}
