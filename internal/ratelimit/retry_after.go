package ratelimit

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"typobench/internal/backend"
)

// RetryAfterParser extracts a provider-declared delay from an error.
type RetryAfterParser func(err error) (time.Duration, bool)

var tryAgainPattern = regexp.MustCompile(`(?i)try again in\s+((?:\d+(?:\.\d+)?(?:ms|us|µs|ns|h|m|s))+)`)

// MessageRetryAfter reads hints such as "Please try again in 1.5s" or
// "try again in 450ms" from the error text.
func MessageRetryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	match := tryAgainPattern.FindStringSubmatch(err.Error())
	if match == nil {
		return 0, false
	}
	wait, parseErr := time.ParseDuration(strings.ToLower(match[1]))
	if parseErr != nil || wait < 0 {
		return 0, false
	}
	return wait, true
}

// HeaderRetryAfter reads Retry-After-Ms or Retry-After from the response
// headers attached to a *backend.Error.
func HeaderRetryAfter(err error) (time.Duration, bool) {
	var backendErr *backend.Error
	if !errors.As(err, &backendErr) || backendErr.Header == nil {
		return 0, false
	}
	if value := strings.TrimSpace(backendErr.Header.Get("Retry-After-Ms")); value != "" {
		if ms, parseErr := strconv.ParseFloat(value, 64); parseErr == nil && ms >= 0 {
			return time.Duration(ms * float64(time.Millisecond)), true
		}
	}
	value := strings.TrimSpace(backendErr.Header.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	if seconds, parseErr := strconv.ParseFloat(value, 64); parseErr == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds * float64(time.Second)), true
	}
	if at, parseErr := http.ParseTime(value); parseErr == nil {
		return max(time.Until(at), 0), true
	}
	return 0, false
}

// ChainParsers returns the first hint any parser finds.
func ChainParsers(parsers ...RetryAfterParser) RetryAfterParser {
	return func(err error) (time.Duration, bool) {
		for _, parser := range parsers {
			if wait, ok := parser(err); ok {
				return wait, true
			}
		}
		return 0, false
	}
}
