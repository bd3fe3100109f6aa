package runner

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	runIDSuffixBytes = 6
	runIDTimeLayout  = "20060102T150405Z"
)

// NewRunID returns a sortable id such as 20240102T030405Z-a1b2c3d4e5f6.
func NewRunID() (string, error) {
	return NewRunIDWithRand(time.Now().UTC(), rand.Reader)
}

func NewRunIDWithRand(now time.Time, r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("random reader is nil")
	}
	buf := make([]byte, runIDSuffixBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return FormatRunID(now, hex.EncodeToString(buf)), nil
}

func FormatRunID(now time.Time, suffix string) string {
	return now.UTC().Format(runIDTimeLayout) + "-" + suffix
}

// RunIDTime returns the start time encoded in a run id.
func RunIDTime(runID string) (time.Time, bool) {
	stamp, _, ok := strings.Cut(runID, "-")
	if !ok {
		return time.Time{}, false
	}
	at, err := time.Parse(runIDTimeLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return at.UTC(), true
}
