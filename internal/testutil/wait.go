package testutil

import (
	"context"
	"testing"
	"time"
)

const defaultTimeout = 5 * time.Second

// Context returns a context cancelled after timeout or one second before the
// test binary deadline, whichever comes first. A zero timeout means five
// seconds.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	deadline := time.Now().Add(timeout)
	if testDeadline, ok := t.Deadline(); ok {
		if cutoff := testDeadline.Add(-time.Second); cutoff.After(time.Now()) && cutoff.Before(deadline) {
			deadline = cutoff
		}
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	t.Cleanup(cancel)
	return ctx
}

// WaitClosed fails the test unless done is closed within timeout.
func WaitClosed(t testing.TB, done <-chan struct{}, timeout time.Duration, what string) {
	t.Helper()
	ctx := Context(t, timeout)
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("timed out waiting for %s", what)
	}
}
