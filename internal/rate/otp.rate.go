package rate

import (
	"context"
	"fmt"
	"time"

	"accounts-service/pkg/cache"
	"accounts-service/pkg/xerrors"
)

// Limiter throttles OTP issuance per user: a cooldown between consecutive
// requests and a cap inside a sliding window, with an extended block once
// the cap is hit.
type Limiter struct {
	cache       *cache.Cache
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

func NewLimiter(cache *cache.Cache, window time.Duration, max int, cooldown time.Duration) *Limiter {
	return &Limiter{cache: cache, window: window, maxInWindow: max, cooldown: cooldown}
}

func (l *Limiter) CanRequest(ctx context.Context, userID string) error {
	blockKey := fmt.Sprintf("otp:block:%s", userID)
	lastKey := fmt.Sprintf("otp:last:%s", userID)
	countKey := fmt.Sprintf("otp:count:%s", userID)

	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", blockKey); ttl > 0 {
		return fmt.Errorf("%w; please try again after %d seconds", xerrors.ErrTooManyOTPRequests, int(ttl.Seconds()))
	}

	if ttl, _ := l.cache.GetTTL(ctx, "otp_rate", lastKey); ttl > 0 {
		return fmt.Errorf("%w; please wait %d seconds before requesting another OTP", xerrors.ErrTooManyOTPRequests, int(ttl.Seconds()))
	}

	cnt, err := l.cache.IncrWithExpire(ctx, "otp_rate", countKey, l.window)
	if err != nil {
		return err
	}

	if int(cnt) > l.maxInWindow {
		// too many requests → block for extended time
		_ = l.cache.Set(ctx, "otp_rate", blockKey, "1", l.window*3)
		return fmt.Errorf("%w; please try again after %d seconds", xerrors.ErrTooManyOTPRequests, int((l.window * 3).Seconds()))
	}

	_ = l.cache.Set(ctx, "otp_rate", lastKey, "1", l.cooldown)

	return nil
}
