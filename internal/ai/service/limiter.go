package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterBurst = 3
	limiterIdle  = 30 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserLimiter keeps one token bucket per user.
type UserLimiter struct {
	mu        sync.Mutex
	perMinute int
	users     map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewUserLimiter allows perMinute requests per user with a burst of 3.
// perMinute <= 0 disables limiting.
func NewUserLimiter(perMinute int) *UserLimiter {
	return &UserLimiter{
		perMinute: perMinute,
		users:     make(map[string]*limiterEntry),
		now:       time.Now,
	}
}

func (l *UserLimiter) Allow(userID string) bool {
	if l == nil || l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdle {
		for id, e := range l.users {
			if now.Sub(e.lastSeen) > limiterIdle {
				delete(l.users, id)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.users[userID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), limiterBurst)}
		l.users[userID] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}
