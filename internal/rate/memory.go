package rate

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: fixed window en memoria sobre go-cache. Mismo bucketing que
// RedisLimiter pero por proceso; apto para dev, tests y despliegues de un
// solo nodo.
type MemoryLimiter struct {
	mu     sync.Mutex
	c      *gocache.Cache
	prefix string
	max    int64
	window time.Duration
}

func NewMemoryLimiter(prefix string, max int, window time.Duration) *MemoryLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &MemoryLimiter{
		c:      gocache.New(window, time.Minute),
		prefix: prefix,
		max:    int64(max),
		window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	k, winEnd := bucket(l.prefix, key, now, l.window)

	// go-cache no expone incr-or-create atómico; el mutex cubre el gap
	l.mu.Lock()
	var hits int64 = 1
	if v, ok := l.c.Get(k); ok {
		hits = v.(int64) + 1
	}
	l.c.Set(k, hits, winEnd.Sub(now))
	l.mu.Unlock()

	return decide(hits, l.max, winEnd, now), nil
}
