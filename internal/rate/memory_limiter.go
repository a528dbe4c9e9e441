package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter: fixed window in-process, para dev/tests o deployments
// single-node sin redis.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   map[string]*windowCounter
	max    int64
	window time.Duration
}

type windowCounter struct {
	start time.Time
	count int64
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   make(map[string]*windowCounter),
		max:    int64(max),
		window: window,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	winStart := now.Truncate(l.window)

	wc, ok := l.hits[key]
	if !ok || wc.start.Before(winStart) {
		wc = &windowCounter{start: winStart}
		l.hits[key] = wc
	}
	wc.count++

	res := Result{
		Allowed:   wc.count <= l.max,
		Remaining: max(l.max-wc.count, 0),
	}
	if !res.Allowed {
		res.RetryAfter = l.window - now.Sub(winStart)
	}
	return res, nil
}
