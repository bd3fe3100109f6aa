package cli

import (
	"io"
	"strings"
	"testing"
)

// TestResolveUIMode verifies ui mode decision logic.
func TestResolveUIMode(t *testing.T) {
	cases := []struct {
		name       string
		mode       string
		verbose    bool
		isTTY      bool
		term       string
		expectLive bool
		wantWarn   string
		wantErr    bool
	}{
		{name: "auto tty", mode: "auto", isTTY: true, expectLive: true},
		{name: "empty means auto", mode: " ", isTTY: true, expectLive: true},
		{name: "auto non-tty", mode: "auto"},
		{name: "auto dumb terminal", mode: "auto", isTTY: true, term: "dumb"},
		{name: "plain", mode: "PLAIN", isTTY: true},
		{name: "verbose disables", mode: "live", verbose: true, isTTY: true},
		{name: "live tty", mode: "live", isTTY: true, term: "xterm-256color", expectLive: true},
		{name: "live non-tty warning", mode: "live", wantWarn: "not a TTY"},
		{name: "live dumb warning", mode: "live", isTTY: true, term: "dumb", wantWarn: "TERM=dumb"},
		{name: "invalid mode", mode: "nope", isTTY: true, wantErr: true},
		{name: "invalid mode with verbose", mode: "nope", verbose: true, wantErr: true},
	}

	original := isTerminal
	t.Cleanup(func() { isTerminal = original })

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isTerminal = func(_ io.Writer) bool { return tc.isTTY }
			stubLookupEnv(t, map[string]string{"TERM": tc.term})
			decision, err := resolveUIMode(tc.mode, tc.verbose, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision.useLive != tc.expectLive {
				t.Fatalf("expected useLive=%v, got %v", tc.expectLive, decision.useLive)
			}
			if tc.wantWarn == "" && decision.warning != "" {
				t.Fatalf("did not expect warning, got %q", decision.warning)
			}
			if !strings.Contains(decision.warning, tc.wantWarn) {
				t.Fatalf("expected warning containing %q, got %q", tc.wantWarn, decision.warning)
			}
		})
	}
}
