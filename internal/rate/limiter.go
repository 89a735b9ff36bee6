// Package rate implementa rate limiting fixed-window para la emisión de
// códigos de login y para endpoints públicos. Backend Redis (multi-instancia)
// o memoria (single node / tests).
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Result es la decisión del limiter para un hit. RetryAfter solo viene
// poblado cuando el hit fue rechazado: es lo que resta de la ventana.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decide si un hit identificado por key entra en la ventana actual.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// bucket identifica la ventana fija que contiene a now. Ambos backends usan
// la misma clave determinística, así varias instancias contra el mismo Redis
// cuentan sobre el mismo bucket.
func bucket(prefix, key string, now time.Time, window time.Duration) (string, time.Time) {
	start := now.Truncate(window)
	k := fmt.Sprintf("%s%s:%d", prefix, strings.ReplaceAll(key, " ", "_"), start.Unix())
	return k, start.Add(window)
}

// decide traduce el contador de la ventana a un Result.
func decide(hits, max int64, winEnd, now time.Time) Result {
	res := Result{Allowed: hits <= max}
	if left := max - hits; left > 0 {
		res.Remaining = int(left)
	}
	if !res.Allowed {
		res.RetryAfter = winEnd.Sub(now)
		if res.RetryAfter <= 0 {
			res.RetryAfter = time.Second
		}
	}
	return res
}

// RedisLimiter cuenta hits por ventana con INCR y deja que la key expire
// sola al cerrar la ventana.
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	k, winEnd := bucket(l.prefix, key, now, l.window)

	// INCR + EXPIRE NX en un solo round trip: solo el primer hit de la
	// ventana fija el TTL, los demás lo dejan como está.
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}
	return decide(incr.Val(), l.max, winEnd, now), nil
}
