package llmgateway

import (
	"context"
	"math/rand"
	"time"

	"github.com/sevigo/repodigest/internal/config"
	"github.com/sevigo/repodigest/internal/core"
)

// backoffSchedule mirrors githost's retry ladder; the LLM Gateway retries the same reduced
// status set {429, 502, 503, 504} that core.Retryable already encodes for KindUpstream.
var backoffSchedule = []time.Duration{
	300 * time.Millisecond,
	800 * time.Millisecond,
	2 * time.Second,
}

const maxJitter = 200 * time.Millisecond

func backoffFor(attempt int) time.Duration {
	idx := attempt
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	jitter := time.Duration(rand.Int63n(int64(maxJitter)))
	return backoffSchedule[idx] + jitter
}

// withRetry runs fn up to cfg.MaxRetries+1 times, each attempt bounded by
// cfg.AttemptTimeout, stopping as soon as fn succeeds or returns a non-retryable error.
func withRetry(ctx context.Context, cfg config.LLMGateConfig, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	var lastErr error
	attempts := cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, core.Timeout(ctx.Err(), "request deadline exceeded before attempt %d", attempt+1)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout())
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
