package githost

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
)

func TestWithRetry_StopsImmediatelyOnNonRetryableError(t *testing.T) {
	calls := 0
	gate := config.GithubGateLimits{MaxRetries: 3, AttemptTimeoutSeconds: 1}

	_, err := withRetry(context.Background(), gate, func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, core.Inaccessible(404, "nope")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesRetryableErrorUpToLimit(t *testing.T) {
	calls := 0
	gate := config.GithubGateLimits{MaxRetries: 2, AttemptTimeoutSeconds: 1}

	_, err := withRetry(context.Background(), gate, func(ctx context.Context) ([]byte, error) {
		calls++
		return nil, core.RateLimited(429, "slow down")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	gate := config.GithubGateLimits{MaxRetries: 2, AttemptTimeoutSeconds: 1}

	data, err := withRetry(context.Background(), gate, func(ctx context.Context) ([]byte, error) {
		calls++
		if calls < 2 {
			return nil, core.Timeout(nil, "slow")
		}
		return []byte("ok"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, 2, calls)
}

func TestWithRetry_AbortsWhenParentContextCancelled(t *testing.T) {
	gate := config.GithubGateLimits{MaxRetries: 3, AttemptTimeoutSeconds: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := withRetry(ctx, gate, func(ctx context.Context) ([]byte, error) {
		t.Fatal("fn should not be invoked once the parent context is already done")
		return nil, nil
	})

	require.Error(t, err)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, core.KindTimeout, kind)
}

func TestBackoffFor_NeverExceedsLastRungPlusJitter(t *testing.T) {
	d := backoffFor(100)
	assert.True(t, d >= backoffSchedule[len(backoffSchedule)-1])
	assert.True(t, d < backoffSchedule[len(backoffSchedule)-1]+maxJitter)
}

func TestBackoffFor_NonNegative(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.True(t, backoffFor(i) > 0)
	}
	_ = time.Second
}
