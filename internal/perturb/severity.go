package perturb

import (
	"fmt"
	"strconv"
	"strings"
)

// Named misspelling levels.
const (
	LevelLight  = "light"
	LevelMedium = "medium"
	LevelSevere = "severe"
)

// DefaultLevel is used when a named level is not recognized.
const DefaultLevel = LevelMedium

var levelProbabilities = map[string]float64{
	LevelLight:  0.1,
	LevelMedium: 0.2,
	LevelSevere: 0.4,
}

// Severity is the per-letter perturbation probability, either taken from a
// named level or given directly.
type Severity struct {
	level       string
	probability float64
}

// Level returns the severity for a named level. Unknown names map to
// DefaultLevel; ok reports whether the name was recognized.
func Level(name string) (sev Severity, ok bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	p, ok := levelProbabilities[key]
	if !ok {
		key = DefaultLevel
		p = levelProbabilities[key]
	}
	return Severity{level: key, probability: p}, ok
}

// Probability returns a severity for a raw probability in [0, 1].
func Probability(p float64) (Severity, error) {
	if p != p || p < 0 || p > 1 {
		return Severity{}, fmt.Errorf("severity %v outside [0, 1]", p)
	}
	return Severity{probability: p}, nil
}

// ParseSeverity accepts either a level name or a decimal probability.
// Level names never fail; an out-of-range probability does.
func ParseSeverity(value string) (Severity, error) {
	value = strings.TrimSpace(value)
	if p, err := strconv.ParseFloat(value, 64); err == nil {
		return Probability(p)
	}
	sev, _ := Level(value)
	return sev, nil
}

// IsKnownLevel reports whether value is a recognized level name or a number.
func IsKnownLevel(value string) bool {
	value = strings.TrimSpace(value)
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return true
	}
	_, ok := levelProbabilities[strings.ToLower(value)]
	return ok
}

// Probability returns the per-letter probability.
func (s Severity) Probability() float64 {
	return s.probability
}

// Label renders the level name, or the probability for raw severities.
func (s Severity) Label() string {
	if s.level != "" {
		return s.level
	}
	return strconv.FormatFloat(s.probability, 'g', -1, 64)
}

func (s Severity) String() string {
	return s.Label()
}

// MarshalText renders the label so records carry the configured level.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.Label()), nil
}

// UnmarshalText parses a label written by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
