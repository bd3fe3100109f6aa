package perturb

import (
	"fmt"
	"math/rand"
	"strings"
)

// StrategyID names a perturbation strategy.
type StrategyID string

const (
	RandomChar        StrategyID = "random_char"
	KeyboardProximity StrategyID = "keyboard_proximity"
	CommonTypos       StrategyID = "common_typos"
)

// DefaultStrategy is used when none is configured.
const DefaultStrategy = RandomChar

// Variant is a perturbed copy of an input text.
type Variant struct {
	Text            string
	CharChangeCount int
	Severity        Severity
	Strategy        StrategyID
	Seed            int64
}

// Options configures a Generator.
type Options struct {
	Strategy StrategyID
	// PreserveCase keeps the case of replaced letters. When false every
	// replacement is lowercase.
	PreserveCase bool
}

type strategyFunc func(text string, p float64, rng *rand.Rand, preserveCase bool) (string, int)

var strategies = map[StrategyID]strategyFunc{
	RandomChar:        substituteRandom,
	KeyboardProximity: substituteNeighbor,
	CommonTypos:       substituteTypos,
}

// Strategies lists the supported strategy ids.
func Strategies() []StrategyID {
	return []StrategyID{RandomChar, KeyboardProximity, CommonTypos}
}

// ParseStrategy resolves a strategy name, defaulting empty input.
func ParseStrategy(value string) (StrategyID, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return DefaultStrategy, nil
	}
	id := StrategyID(value)
	if _, ok := strategies[id]; !ok {
		return "", fmt.Errorf("unknown misspelling strategy %q", value)
	}
	return id, nil
}

// Generator produces deterministic misspelled variants.
type Generator struct {
	opts  Options
	apply strategyFunc
}

// NewGenerator returns a generator for the configured strategy.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.Strategy == "" {
		opts.Strategy = DefaultStrategy
	}
	apply, ok := strategies[opts.Strategy]
	if !ok {
		return nil, fmt.Errorf("unknown misspelling strategy %q", opts.Strategy)
	}
	return &Generator{opts: opts, apply: apply}, nil
}

// Strategy returns the configured strategy id.
func (g *Generator) Strategy() StrategyID {
	return g.opts.Strategy
}

// GenerateVariant perturbs text with the given severity. The same text,
// severity and seed always produce the same variant.
func (g *Generator) GenerateVariant(text string, severity Severity, seed int64) (Variant, error) {
	p := severity.Probability()
	if p != p || p < 0 || p > 1 {
		return Variant{}, fmt.Errorf("severity %v outside [0, 1]", p)
	}
	variant := Variant{Severity: severity, Strategy: g.opts.Strategy, Seed: seed}
	if text == "" {
		return variant, nil
	}
	rng := rand.New(rand.NewSource(seed))
	variant.Text, variant.CharChangeCount = g.apply(text, p, rng, g.opts.PreserveCase)
	return variant, nil
}

// RowSeed derives the per-row seed so a row's variant does not depend on
// scheduling order.
func RowSeed(runSeed int64, rowIdx int) int64 {
	return runSeed + int64(rowIdx)
}
