package usecase

import (
	"context"
	"errors"
	"time"

	"accounts-service/internal/domain"
	"accounts-service/pkg/id"
	"accounts-service/pkg/jwtutil"
	"accounts-service/pkg/utils"
	"accounts-service/pkg/xerrors"

	"go.uber.org/zap"
)

// SessionRepository persists issued login sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetActiveByToken(ctx context.Context, token string) (*domain.Session, error)
	DeactivateByToken(ctx context.Context, token string) error
}

// SessionCache fronts the sessions table on the authentication hot path.
// pkg/cache satisfies it; nil disables caching and every check hits the
// repository.
type SessionCache interface {
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, namespace, key string) (string, error)
	Delete(ctx context.Context, namespace, key string) error
}

const (
	sessionCacheNS  = "session"
	sessionCacheTTL = 5 * time.Minute
)

type LoginResult struct {
	User      *domain.User
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// AuthUsecase verifies credentials, issues session tokens and records the
// login trail as a side effect.
type AuthUsecase struct {
	users    UserRepository
	sessions SessionRepository
	cache    SessionCache
	audit    *AuditUsecase
	jwtGen   *jwtutil.Generator
	logger   *zap.Logger
}

func NewAuthUsecase(users UserRepository, sessions SessionRepository, cache SessionCache, audit *AuditUsecase, jwtGen *jwtutil.Generator, logger *zap.Logger) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		sessions: sessions,
		cache:    cache,
		audit:    audit,
		jwtGen:   jwtGen,
		logger:   logger,
	}
}

// Login authenticates by email and password. Every attempt against a known
// account lands in the login trail, successful or not; audit failures are
// logged but never change the login outcome.
func (uc *AuthUsecase) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	email = utils.NormalizeEmail(email)

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, xerrors.ErrUserNotFound) {
			return nil, xerrors.ErrInvalidCredentials
		}
		return nil, err
	}

	ok := utils.CheckPasswordHash(password, user.PasswordHash)

	if _, auditErr := uc.audit.RecordLoginAttempt(ctx, user.ID, ip, userAgent, ok, nil); auditErr != nil {
		uc.logger.Warn("failed to record login attempt",
			zap.String("user_id", user.ID), zap.Error(auditErr))
	}

	if !ok {
		return nil, xerrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, xerrors.ErrAccountInactive
	}

	token, expiresAt, err := uc.jwtGen.Generate(user.ID)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        id.GenerateUUID("sess"),
		UserID:    user.ID,
		AuthToken: token,
		IPAddress: &ip,
		UserAgent: &userAgent,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return &LoginResult{
		User:      user,
		Token:     token,
		SessionID: session.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout revokes the session behind the presented token: the cache entry is
// dropped and the row deactivated, so the token stops authenticating before
// its JWT expiry. Unknown tokens are a no-op; logout never fails a client
// that is already logged out.
func (uc *AuthUsecase) Logout(ctx context.Context, token string) error {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, sessionCacheNS, token)
	}
	return uc.sessions.DeactivateByToken(ctx, token)
}

// Authenticate verifies a bearer token and returns the user id it carries.
// The signature and expiry are checked first, then that the session the
// token was issued with is still active, through the cache when one is
// configured.
func (uc *AuthUsecase) Authenticate(ctx context.Context, token string) (string, error) {
	userID, err := uc.jwtGen.Parse(token)
	if err != nil {
		return "", xerrors.ErrUnauthorized
	}

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, sessionCacheNS, token); err == nil && cached == userID {
			return userID, nil
		}
	}

	session, err := uc.sessions.GetActiveByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if session == nil || session.UserID != userID {
		return "", xerrors.ErrUnauthorized
	}

	if uc.cache != nil {
		ttl := sessionCacheTTL
		if until := time.Until(session.ExpiresAt); until < ttl {
			ttl = until
		}
		_ = uc.cache.Set(ctx, sessionCacheNS, token, userID, ttl)
	}
	return userID, nil
}
