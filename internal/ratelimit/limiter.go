// Package ratelimit guards the chat relay against message flooding.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/phira-mp/server/internal/metrics"
)

// ChatLimiter enforces the per-user chat flood limit (SPEC_FULL §9: 5
// messages per 10s). It wraps a single in-memory ulule/limiter instance
// keyed by user id; there is no cross-process state to share, so there is
// no Redis-backed variant here.
type ChatLimiter struct {
	chat *limiter.Limiter
}

// New builds a ChatLimiter allowing `limit` messages per `period`.
func New(limitCount int, period time.Duration) *ChatLimiter {
	rate := limiter.Rate{
		Period: period,
		Limit:  int64(limitCount),
	}
	store := memory.NewStore()
	return &ChatLimiter{chat: limiter.New(store, rate)}
}

// Allow reports whether userID may send another chat message right now. A
// store failure fails open — a flaky limiter should never itself take the
// lobby down — and is not counted against the user.
func (l *ChatLimiter) Allow(ctx context.Context, userID int32) bool {
	key := strconv.FormatInt(int64(userID), 10)
	ctxLimit, err := l.chat.Get(ctx, key)
	if err != nil {
		return true
	}
	if ctxLimit.Reached {
		metrics.ChatRateLimitExceeded.Inc()
		return false
	}
	return true
}
