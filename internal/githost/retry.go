package githost

import (
	"context"
	"math/rand"
	"time"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
)

// backoffSchedule is the deterministic base-delay ladder before jitter is added, mirroring
// the teacher's retry loop in internal/github/client.go but generalized to N attempts
// driven by config instead of a hardcoded constant.
var backoffSchedule = []time.Duration{
	200 * time.Millisecond,
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
}

const maxJitter = 150 * time.Millisecond

func backoffFor(attempt int) time.Duration {
	idx := attempt
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	jitter := time.Duration(rand.Int63n(int64(maxJitter)))
	return backoffSchedule[idx] + jitter
}

// withRetry runs fn up to gate.MaxRetries+1 times, each attempt bounded by
// gate.AttemptTimeout, stopping as soon as fn succeeds or returns a non-retryable error.
func withRetry(ctx context.Context, gate config.GithubGateLimits, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	var lastErr error
	attempts := gate.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, core.Timeout(ctx.Err(), "request deadline exceeded before attempt %d", attempt+1)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, gate.AttemptTimeout())
		data, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return data, nil
		}
		lastErr = err

		if !core.Retryable(err) {
			return nil, err
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-time.After(backoffFor(attempt)):
		case <-ctx.Done():
			return nil, core.Timeout(ctx.Err(), "request deadline exceeded while backing off")
		}
	}
	return nil, lastErr
}
