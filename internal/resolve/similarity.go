package resolve

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// EditSimilarity is 1 - levenshtein(a, b) / max rune length. Tolerates typos
// and transpositions.
func EditSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	n := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if n == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(n)
}

// TokenSimilarity tolerates word reordering: the better of the Dice
// coefficient over word sets and the edit similarity of the sorted words.
func TokenSimilarity(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	return math.Max(dice(ta, tb), EditSimilarity(sortedJoin(ta), sortedJoin(tb)))
}

func dice(a, b []string) float64 {
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}
	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(setA)+len(setB))
}

func sortedJoin(tokens []string) string {
	s := append([]string(nil), tokens...)
	sort.Strings(s)
	return strings.Join(s, " ")
}

// Score combines edit and token similarity of the business-normalized names
// into a 0..100 confidence.
func Score(a, b string) int {
	na, nb := NormalizeBusinessName(a), NormalizeBusinessName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}
	s := 0.5*EditSimilarity(na, nb) + 0.5*TokenSimilarity(na, nb)
	v := int(math.Round(100 * s))
	return min(max(v, 0), 100)
}
