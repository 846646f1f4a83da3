package textutil

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldAccents strips combining marks, "Évry-Courcouronnes" becomes
// "Evry-Courcouronnes".
func FoldAccents(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(folder, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName lowercases name, folds accents and drops everything that is not a
// letter or a digit so that "Saint-Étienne" and "saint etienne" compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(FoldAccents(name))
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, name)
}

// Similarity is the Jaro-Winkler similarity of the normalized names, in [0, 1].
func Similarity(a, b string) float64 {
	na := NormalizeName(a)
	nb := NormalizeName(b)
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	return matchr.JaroWinkler(na, nb, false)
}

// MatchName reports whether name contains one of matchers or is at least
// `threshold` similar to one of them.
func MatchName(name string, matchers []string, threshold float64) bool {
	normalized := NormalizeName(name)
	for _, m := range matchers {
		nm := NormalizeName(m)
		if nm == "" {
			continue
		}
		if strings.Contains(normalized, nm) {
			return true
		}
		if Similarity(name, m) >= threshold {
			return true
		}
	}
	return false
}
