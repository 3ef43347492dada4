// Package names resolves player and team identity across providers that
// format names inconsistently: diacritics, "Last, First" vs "First Last",
// abbreviated first names. The matcher is deliberately permissive: in
// settlement a false positive beats a bet stuck pending forever.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// surnameMinLen guards the final-word rule against trivial collisions
// on one- or two-letter fragments.
const surnameMinLen = 3

// minCommonWords is how many shared significant words (length > 2)
// constitute a match for reordered or partially abbreviated names.
const minCommonWords = 2

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics and everything that is not a
// letter or space, collapses whitespace, and rewrites "Last, First" to
// "first last".
func Normalize(name string) string {
	// "Kasatkina, Daria" -> "Daria Kasatkina" before the comma is stripped.
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = strings.TrimSpace(name[i+1:]) + " " + strings.TrimSpace(name[:i])
	}

	if t, _, err := transform.String(stripAccents, name); err == nil {
		name = t
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || r == ' ' {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Match reports whether two names plausibly refer to the same player or
// team. Rules apply in order, short-circuiting on the first hit:
//
//  1. equal normalized strings
//  2. equal final words (presumed surnames) of at least 3 letters
//  3. at least 2 shared words longer than 2 letters (catches reordered
//     and partially abbreviated names)
func Match(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	wordsA := strings.Fields(na)
	wordsB := strings.Fields(nb)

	lastA := wordsA[len(wordsA)-1]
	lastB := wordsB[len(wordsB)-1]
	if lastA == lastB && len(lastA) >= surnameMinLen {
		return true
	}

	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		if len(w) > 2 {
			setA[w] = true
		}
	}
	common := 0
	seen := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		if len(w) > 2 && setA[w] && !seen[w] {
			seen[w] = true
			common++
			if common >= minCommonWords {
				return true
			}
		}
	}

	return false
}

// MatchPair reports whether the (home, away) pair identifies the same
// contest as (h, a), in either orientation. Upstream home/away
// assignment is not stable between providers.
func MatchPair(home, away, h, a string) bool {
	if Match(home, h) && Match(away, a) {
		return true
	}
	return Match(home, a) && Match(away, h)
}
