// Package backend talks to the language-model services evaluated in a run.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Backend answers a single prompt with free-form text.
type Backend interface {
	ID() string
	Kind() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrRateLimited marks errors caused by provider throttling.
var ErrRateLimited = errors.New("rate limited")

// Error describes a failed backend call.
type Error struct {
	Backend    string
	Kind       string
	StatusCode int
	Message    string
	// Header holds the response headers when the provider replied.
	Header      http.Header
	RateLimited bool
	Err         error
}

func (err *Error) Error() string {
	status := ""
	if err.StatusCode != 0 {
		status = fmt.Sprintf(" (status %d)", err.StatusCode)
	}
	return fmt.Sprintf("backend %s%s: %s", err.Backend, status, err.Message)
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Is matches ErrRateLimited for throttled calls.
func (err *Error) Is(target error) bool {
	return target == ErrRateLimited && err.RateLimited
}

// Func adapts a function into a Backend.
type Func struct {
	BackendID   string
	BackendKind string
	Fn          func(ctx context.Context, prompt string) (string, error)
}

func (f Func) ID() string   { return f.BackendID }
func (f Func) Kind() string { return f.BackendKind }

func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f.Fn(ctx, prompt)
}
