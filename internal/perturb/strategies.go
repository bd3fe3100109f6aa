package perturb

import (
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// keyboardNeighbors maps each key to its QWERTY neighbors.
var keyboardNeighbors = map[rune]string{
	'a': "qwsz", 'b': "vghn", 'c': "xdfv", 'd': "srfce", 'e': "wrsdf",
	'f': "dcvgt", 'g': "fvbht", 'h': "gbnjy", 'i': "ujko", 'j': "huknm",
	'k': "jilm", 'l': "kop", 'm': "njk", 'n': "bhjm", 'o': "iklp",
	'p': "ol", 'q': "wa", 'r': "edft", 's': "awdzx", 't': "rfgy",
	'u': "yihj", 'v': "cfgb", 'w': "qase", 'x': "zsdc", 'y': "tghu",
	'z': "asx",
}

// commonTypos maps frequent words to typical misspellings.
var commonTypos = map[string][]string{
	"the":  {"teh", "hte", "th"},
	"and":  {"adn", "nad", "an"},
	"to":   {"too", "tp", "t"},
	"of":   {"fo", "ff", "f"},
	"in":   {"ni", "inn", "n"},
	"that": {"taht", "tht", "tha"},
	"is":   {"si", "iz", "i"},
	"for":  {"fro", "fr", "fo"},
}

// substituteRandom replaces each letter, with probability p, by a different
// letter drawn uniformly from a-z.
func substituteRandom(text string, p float64, rng *rand.Rand, preserveCase bool) (string, int) {
	var b strings.Builder
	b.Grow(len(text))
	changes := 0
	for _, r := range text {
		if !unicode.IsLetter(r) || rng.Float64() >= p {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(applyCase(r, otherLetter(r, rng), preserveCase))
		changes++
	}
	return b.String(), changes
}

// otherLetter draws a lowercase ASCII letter that differs from r.
func otherLetter(r rune, rng *rand.Rand) rune {
	lower := unicode.ToLower(r)
	if lower < 'a' || lower > 'z' {
		return rune(alphabet[rng.Intn(len(alphabet))])
	}
	c := 'a' + rune(rng.Intn(len(alphabet)-1))
	if c >= lower {
		c++
	}
	return c
}

// substituteNeighbor replaces letters with an adjacent QWERTY key.
func substituteNeighbor(text string, p float64, rng *rand.Rand, preserveCase bool) (string, int) {
	var b strings.Builder
	b.Grow(len(text))
	changes := 0
	for _, r := range text {
		neighbors, ok := keyboardNeighbors[unicode.ToLower(r)]
		if !ok || rng.Float64() >= p {
			b.WriteRune(r)
			continue
		}
		replacement := applyCase(r, rune(neighbors[rng.Intn(len(neighbors))]), preserveCase)
		b.WriteRune(replacement)
		if replacement != r {
			changes++
		}
	}
	return b.String(), changes
}

// substituteTypos swaps whole words for a known misspelling.
func substituteTypos(text string, p float64, rng *rand.Rand, preserveCase bool) (string, int) {
	var b strings.Builder
	b.Grow(len(text))
	changes := 0
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		if !unicode.IsLetter(r) {
			b.WriteString(text[:size])
			text = text[size:]
			continue
		}
		end := size
		for end < len(text) {
			next, n := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsLetter(next) {
				break
			}
			end += n
		}
		word := text[:end]
		text = text[end:]
		typos, ok := commonTypos[strings.ToLower(word)]
		if !ok || rng.Float64() >= p {
			b.WriteString(word)
			continue
		}
		typo := typos[rng.Intn(len(typos))]
		if preserveCase {
			typo = matchCase(word, typo)
		}
		b.WriteString(typo)
		changes += diffCount(word, typo)
	}
	return b.String(), changes
}

func applyCase(original, replacement rune, preserveCase bool) rune {
	if preserveCase && unicode.IsUpper(original) {
		return unicode.ToUpper(replacement)
	}
	return replacement
}

// matchCase copies the case pattern of word onto typo, position by
// position; extra typo letters follow the last letter of word.
func matchCase(word, typo string) string {
	src := []rune(word)
	out := []rune(typo)
	for i := range out {
		ref := src[len(src)-1]
		if i < len(src) {
			ref = src[i]
		}
		if unicode.IsUpper(ref) {
			out[i] = unicode.ToUpper(out[i])
		}
	}
	return string(out)
}

// diffCount is the number of differing positions plus the length delta.
func diffCount(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := min(len(ra), len(rb))
	count := max(len(ra), len(rb)) - n
	for i := 0; i < n; i++ {
		if ra[i] != rb[i] {
			count++
		}
	}
	return count
}
