package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// uiModeDecision captures whether to use the live UI.
type uiModeDecision struct {
	useLive bool
	warning string
}

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

// resolveUIMode picks the progress display. Verbose runs always use plain
// lines since they interleave debug output.
func resolveUIMode(mode string, verbose bool, stdout io.Writer) (uiModeDecision, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = "auto"
	}
	switch normalized {
	case "auto", "live", "plain":
	default:
		return uiModeDecision{}, fmt.Errorf("invalid ui mode %q (expected auto|live|plain)", mode)
	}
	if verbose || normalized == "plain" {
		return uiModeDecision{}, nil
	}

	reason := ""
	switch {
	case !isTerminal(stdout):
		reason = "stdout is not a TTY"
	case dumbTerminal():
		reason = "TERM=dumb"
	}
	if reason == "" {
		return uiModeDecision{useLive: true}, nil
	}
	if normalized == "live" {
		return uiModeDecision{warning: "Live UI requested but " + reason + "; falling back to plain output."}, nil
	}
	return uiModeDecision{}, nil
}

func dumbTerminal() bool {
	value, _ := lookupEnv("TERM")
	return value == "dumb"
}

// defaultIsTerminal inspects stdout for TTY support.
func defaultIsTerminal(stdout io.Writer) bool {
	if file, ok := stdout.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
