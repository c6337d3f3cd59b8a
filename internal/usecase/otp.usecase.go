package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"accounts-service/internal/domain"
	"accounts-service/pkg/id"
	"accounts-service/pkg/xerrors"

	"go.uber.org/zap"
)

// OTPRepository is the storage contract for the OTP engine. Create must
// deactivate the user's other OTPs in the same transaction and surface
// unique-index violations unchanged so the engine can retry.
type OTPRepository interface {
	Create(ctx context.Context, o *domain.OTP) error
	GetLatestActive(ctx context.Context, userID string) (*domain.OTP, error)
	Deactivate(ctx context.Context, otpID string) error
	CodeExists(ctx context.Context, code string) (bool, error)
}

// IssueLimiter throttles issuance per user. A nil limiter disables throttling.
type IssueLimiter interface {
	CanRequest(ctx context.Context, userID string) error
}

const otpDigits = 4

// maxIssueAttempts bounds the collision retry loop. With a 10k code space the
// loop only degenerates when the table is nearly saturated with live codes.
const maxIssueAttempts = 100

type OTPUsecase struct {
	repo    OTPRepository
	limiter IssueLimiter
	sf      *id.Snowflake
	ttl     time.Duration
	logger  *zap.Logger
}

func NewOTPUsecase(repo OTPRepository, limiter IssueLimiter, sf *id.Snowflake, ttl time.Duration, logger *zap.Logger) *OTPUsecase {
	return &OTPUsecase{
		repo:    repo,
		limiter: limiter,
		sf:      sf,
		ttl:     ttl,
		logger:  logger,
	}
}

// Issue deactivates every active OTP the user holds and creates a fresh one
// with a globally unique 4-digit code. Code collisions are retried, never
// surfaced.
func (uc *OTPUsecase) Issue(ctx context.Context, userID string) (*domain.OTP, error) {
	if uc.limiter != nil {
		if err := uc.limiter.CanRequest(ctx, userID); err != nil {
			return nil, err
		}
	}

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		code, err := randomCode(otpDigits)
		if err != nil {
			return nil, err
		}

		exists, err := uc.repo.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		otp := &domain.OTP{
			ID:     uc.sf.Generate(),
			UserID: userID,
			Code:   code,
		}
		err = uc.repo.Create(ctx, otp)
		if err != nil {
			// Lost the race for the code to a concurrent issuer; draw again.
			if xerrors.IsUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return otp, nil
	}

	return nil, xerrors.ErrOTPCodeExhausted
}

// GetLatestActive returns the newest active OTP for the user, nil when none.
func (uc *OTPUsecase) GetLatestActive(ctx context.Context, userID string) (*domain.OTP, error) {
	return uc.repo.GetLatestActive(ctx, userID)
}

// Validate reports whether the OTP is still usable. An OTP older than the
// TTL (measured from its last update) is deactivated on the spot; expiry is
// only ever enforced here, there is no background sweep.
func (uc *OTPUsecase) Validate(ctx context.Context, otp *domain.OTP) (bool, error) {
	if otp == nil || !otp.Active {
		return false, nil
	}

	if time.Now().After(otp.ExpiresAt(uc.ttl)) {
		if err := uc.repo.Deactivate(ctx, otp.ID); err != nil {
			return false, err
		}
		otp.Active = false
		return false, nil
	}

	return true, nil
}

// ValidateSubmitted checks a caller-submitted code against the user's latest
// active OTP.
func (uc *OTPUsecase) ValidateSubmitted(ctx context.Context, userID, code string) (bool, error) {
	otp, err := uc.repo.GetLatestActive(ctx, userID)
	if err != nil {
		return false, err
	}
	if otp == nil {
		return false, nil
	}

	ok, err := uc.Validate(ctx, otp)
	if err != nil || !ok {
		return false, err
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		uc.logger.Info("OTP verification failed",
			zap.String("user_id", userID))
		return false, nil
	}
	return true, nil
}

func randomCode(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil) // 10^digits
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
