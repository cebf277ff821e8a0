//go:build integration

package dispatchguard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utsav/pkg/testutil/containers"
)

func TestRedisGuard(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	guard := NewRedis(rc.Client)
	ctx := context.Background()

	t.Run("second acquire loses while held", func(t *testing.T) {
		acquired, err := guard.Acquire(ctx, "artifact:R-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)

		acquired, err = guard.Acquire(ctx, "artifact:R-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, acquired)

		require.NoError(t, guard.Release(ctx, "artifact:R-1"))
		acquired, err = guard.Acquire(ctx, "artifact:R-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("expiry frees a crashed holder", func(t *testing.T) {
		acquired, err := guard.Acquire(ctx, "notify:R-2", 100*time.Millisecond)
		require.NoError(t, err)
		require.True(t, acquired)

		require.Eventually(t, func() bool {
			acquired, err := guard.Acquire(ctx, "notify:R-2", time.Minute)
			return err == nil && acquired
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("keys are independent", func(t *testing.T) {
		a, err := guard.Acquire(ctx, "ledger:R-3", time.Minute)
		require.NoError(t, err)
		b, err := guard.Acquire(ctx, "ledger:R-4", time.Minute)
		require.NoError(t, err)
		assert.True(t, a)
		assert.True(t, b)
	})
}
