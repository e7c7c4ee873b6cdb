package resolve

import (
	"strings"
	"unicode"
)

var corporateSuffixes = map[string]bool{
	"llc":          true,
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"ltd":          true,
	"limited":      true,
	"lp":           true,
	"llp":          true,
	"pllc":         true,
}

// NormalizeBusinessName reduces a business name to a comparable form:
// "The Garcia Framing, LLC" and "garcia framing" normalize to the same string.
func NormalizeBusinessName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '\'' || r == '\u2019':
			return -1
		}
		return ' '
	}, s)

	tokens := strings.Fields(s)
	if len(tokens) > 1 && tokens[0] == "the" {
		tokens = tokens[1:]
	}
	for len(tokens) > 1 && (corporateSuffixes[tokens[len(tokens)-1]] || tokens[len(tokens)-1] == "and") {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}
