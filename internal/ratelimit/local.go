// Package ratelimit bounds how often a single user may request a recipe.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Local keeps one token bucket per user in process memory.
type Local struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	every    rate.Limit
	burst    int
}

// NewLocal allows limit events per window for each user. A non-positive limit
// disables limiting.
func NewLocal(limit int, window time.Duration) *Local {
	l := &Local{limiters: make(map[int64]*rate.Limiter), burst: limit}
	if limit <= 0 || window <= 0 {
		l.every = rate.Inf
		return l
	}
	l.every = rate.Every(window / time.Duration(limit))
	return l
}

func (l *Local) Allow(_ context.Context, user int64) (bool, error) {
	if l.every == rate.Inf {
		return true, nil
	}

	l.mu.Lock()
	lim, ok := l.limiters[user]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.limiters[user] = lim
	}
	l.mu.Unlock()

	return lim.Allow(), nil
}
