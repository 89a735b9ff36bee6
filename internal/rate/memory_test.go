package rate_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nu-its/authgate/internal/rate"
)

func TestMemoryLimiter_AllowsUpToMax(t *testing.T) {
	l := rate.NewMemoryLimiter("t:", 3, time.Hour)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "a@nu.edu")
		require.NoError(t, err)
		require.True(t, res.Allowed, "hit %d", i)
		require.Equal(t, 3-i, res.Remaining)
		require.Zero(t, res.RetryAfter)
	}

	res, err := l.Allow(ctx, "a@nu.edu")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 0, res.Remaining)
	require.Greater(t, res.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, res.RetryAfter, time.Hour)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l := rate.NewMemoryLimiter("t:", 1, time.Hour)
	ctx := context.Background()

	res, err := l.Allow(ctx, "a@nu.edu")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.Allow(ctx, "a@nu.edu")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	// Otra key arranca su propia cuenta
	res, err = l.Allow(ctx, "b@nu.edu")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryLimiter_ConcurrentHitsCountExactly(t *testing.T) {
	l := rate.NewMemoryLimiter("t:", 1000, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	const workers = 50
	const hitsEach = 10
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < hitsEach; i++ {
				_, err := l.Allow(ctx, "shared")
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	// Con la cuenta exacta, al hit 501 le quedan 1000-501 de margen
	res, err := l.Allow(ctx, "shared")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 1000-(workers*hitsEach+1), res.Remaining)
}

func TestMemoryLimiter_ManyKeys(t *testing.T) {
	l := rate.NewMemoryLimiter("t:", 2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		res, err := l.Allow(ctx, fmt.Sprintf("user-%d@nu.edu", i))
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
}
