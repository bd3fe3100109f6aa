package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"typobench/internal/backend"
)

// ErrRetriesExhausted marks a call that stayed rate limited after every retry.
var ErrRetriesExhausted = errors.New("retries exhausted")

// DefaultMaxRetries is used when no retry budget is configured.
const DefaultMaxRetries = 5

// ExhaustedError wraps the last rate-limit error of a call.
type ExhaustedError struct {
	Backend  string
	Attempts int
	Last     error
}

func (err *ExhaustedError) Error() string {
	return fmt.Sprintf("backend %s: rate limited after %d attempts: %v", err.Backend, err.Attempts, err.Last)
}

// Unwrap exposes both the sentinel and the last provider error.
func (err *ExhaustedError) Unwrap() []error {
	return []error{ErrRetriesExhausted, err.Last}
}

// RetryEvent describes a scheduled retry.
type RetryEvent struct {
	Backend string
	// Attempt is the 1-based number of the attempt that failed.
	Attempt int
	Wait    time.Duration
	// Hinted is true when the provider declared the delay.
	Hinted bool
	Err    error
}

// RetryPolicy retries rate-limited backend calls.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// Parsers maps a backend kind to its retry-after parser. Kinds without
	// an entry use HeaderRetryAfter.
	Parsers map[string]RetryAfterParser
	// Sleep waits for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
	// Jitter returns a value in [0, 1).
	Jitter func() float64
	Logger *slog.Logger
	// OnRetry is called before each wait with the context of the call.
	OnRetry func(ctx context.Context, event RetryEvent)
}

// DefaultParsers returns the retry-after parsers for the known provider kinds.
func DefaultParsers() map[string]RetryAfterParser {
	messageFirst := ChainParsers(MessageRetryAfter, HeaderRetryAfter)
	return map[string]RetryAfterParser{
		backend.KindGroq:   messageFirst,
		backend.KindOpenAI: messageFirst,
	}
}

// NewRetryPolicy builds a policy with real sleeps and seeded jitter.
func NewRetryPolicy(maxRetries int, seed int64, logger *slog.Logger) *RetryPolicy {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryPolicy{
		MaxRetries: maxRetries,
		Parsers:    DefaultParsers(),
		Sleep:      SleepContext,
		Jitter:     newJitterRand(seed).Float64,
		Logger:     logger,
	}
}

// Do calls target until it succeeds, fails with a non rate-limit error, or
// the retry budget is spent. No wait follows the final attempt.
func (p *RetryPolicy) Do(ctx context.Context, target backend.Backend, prompt string) (string, error) {
	attempts := p.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		out, err := target.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, backend.ErrRateLimited) {
			return "", err
		}
		if attempt >= attempts {
			return "", &ExhaustedError{Backend: target.ID(), Attempts: attempt, Last: err}
		}
		wait, hinted := p.delay(target.Kind(), attempt-1, err)
		event := RetryEvent{Backend: target.ID(), Attempt: attempt, Wait: wait, Hinted: hinted, Err: err}
		if p.Logger != nil {
			p.Logger.Warn("rate limited, retrying", "backend", target.ID(), "attempt", attempt, "max_attempts", attempts, "wait", wait, "hinted", hinted)
		}
		if p.OnRetry != nil {
			p.OnRetry(ctx, event)
		}
		if err := p.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

// delay returns the provider hint, or 2^retry seconds plus jitter.
func (p *RetryPolicy) delay(kind string, retry int, err error) (time.Duration, bool) {
	parser, ok := p.Parsers[kind]
	if !ok {
		parser = HeaderRetryAfter
	}
	if parser != nil {
		if wait, ok := parser(err); ok {
			return wait, true
		}
	}
	jitter := 0.0
	if p.Jitter != nil {
		jitter = p.Jitter()
	}
	seconds := math.Pow(2, float64(retry)) + jitter
	return time.Duration(seconds * float64(time.Second)), false
}

func (p *RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// jitterRand is a mutex-guarded RNG shared by concurrent retries.
type jitterRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newJitterRand(seed int64) *jitterRand {
	return &jitterRand{r: rand.New(rand.NewSource(seed))}
}

func (r *jitterRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}
