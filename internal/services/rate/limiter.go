package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	likesMinuteWindow = time.Minute
	likes10SecWindow  = 10 * time.Second
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter throttles rating actions per user over two fixed windows.
type Limiter struct {
	store     WindowStore
	perMinute int
	per10Sec  int
}

func NewLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	if per10Sec < 0 {
		per10Sec = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
		per10Sec:  per10Sec,
	}
}

// AllowLike consumes one slot in every configured window. When a window is
// exhausted it reports the seconds until the widest exhausted window rolls
// over.
func (l *Limiter) AllowLike(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perMinute > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, minuteKey(userID), likesMinuteWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perMinute) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.per10Sec > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, tenSecKey(userID), likes10SecWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.per10Sec) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

func minuteKey(userID int64) string {
	return "rate:likes:min:" + strconv.FormatInt(userID, 10)
}

func tenSecKey(userID int64) string {
	return "rate:likes:10s:" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
