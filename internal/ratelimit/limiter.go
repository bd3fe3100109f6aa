package ratelimit

import (
	"context"

	"typobench/internal/backend"
)

// Limited wraps a backend with pacing and rate-limit retries.
type Limited struct {
	next   backend.Backend
	policy *RetryPolicy
	pacer  *Pacer
}

// Wrap returns a backend that paces every attempt and retries throttled
// calls with policy. A nil policy disables retries.
func Wrap(next backend.Backend, policy *RetryPolicy, pacer *Pacer) *Limited {
	return &Limited{next: next, policy: policy, pacer: pacer}
}

func (l *Limited) ID() string   { return l.next.ID() }
func (l *Limited) Kind() string { return l.next.Kind() }

// Complete implements backend.Backend.
func (l *Limited) Complete(ctx context.Context, prompt string) (string, error) {
	paced := pacedBackend{Backend: l.next, pacer: l.pacer}
	if l.policy == nil {
		return paced.Complete(ctx, prompt)
	}
	return l.policy.Do(ctx, paced, prompt)
}

type pacedBackend struct {
	backend.Backend
	pacer *Pacer
}

func (b pacedBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if err := b.pacer.Wait(ctx); err != nil {
		return "", err
	}
	return b.Backend.Complete(ctx, prompt)
}
