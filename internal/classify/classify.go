// Package classify maps account paths to internal categories and aggregates
// the paths no mapping covers.
package classify

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/crewledger/crewledger/internal/model"
)

// Classification is the category decision for one account path.
type Classification struct {
	AccountPath string `json:"accountPath"`
	Category    string `json:"category"`
	Mapped      bool   `json:"mapped"`
	MatchedPath string `json:"matchedPath,omitempty"` // mapping that applied; a prefix of AccountPath or equal to it
	Suggestion  string `json:"suggestion,omitempty"`  // unmapped only; never applied
}

// Classifier is read-only after New and safe for concurrent use.
type Classifier struct {
	byPath   map[string]model.CategoryMapping
	rules    []model.KeywordRule
	fallback string
}

// New builds a classifier from the active mappings. Inactive mappings are ignored.
func New(mappings []model.CategoryMapping, rules []model.KeywordRule, fallback string) *Classifier {
	byPath := make(map[string]model.CategoryMapping, len(mappings))
	for _, m := range mappings {
		if !m.Active {
			continue
		}
		byPath[model.AccountPathKey(m.AccountPath)] = m
	}
	return &Classifier{byPath: byPath, rules: rules, fallback: fallback}
}

// Classify looks the path up exactly, then by its longest mapped prefix.
func (c *Classifier) Classify(path string) Classification {
	path = model.NormalizeAccountPath(path)
	out := Classification{AccountPath: path}

	segments := strings.Split(model.AccountPathKey(path), ":")
	for n := len(segments); n > 0; n-- {
		if m, ok := c.byPath[strings.Join(segments[:n], ":")]; ok {
			out.Category = m.Category
			out.Mapped = true
			out.MatchedPath = m.AccountPath
			return out
		}
	}

	out.Category = c.fallback
	out.Suggestion = c.Suggest(path)
	return out
}

// Suggest returns the category of the first keyword rule matching a word of
// path, or "".
func (c *Classifier) Suggest(path string) string {
	words := strings.FieldsFunc(strings.ToLower(path), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	text := " " + strings.Join(words, " ") + " "
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if strings.Contains(kw, " ") {
				if strings.Contains(text, " "+kw+" ") {
					return rule.Category
				}
				continue
			}
			for _, w := range words {
				if w == kw || (len(kw) >= 4 && strings.HasPrefix(w, kw)) {
					return rule.Category
				}
			}
		}
	}
	return ""
}

// Unmapped aggregates the rows of one unmapped account path.
type Unmapped struct {
	AccountPath string          `json:"accountPath"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"` // sum of absolute amounts
	Suggestion  string          `json:"suggestion,omitempty"`
	Lines       []int           `json:"lines"`
}

// UnmappedTracker collects unmapped paths in first-seen order. Not safe for
// concurrent use; feed it after classification completes.
type UnmappedTracker struct {
	order  []string
	byPath map[string]*Unmapped
}

// NewUnmappedTracker returns an empty tracker.
func NewUnmappedTracker() *UnmappedTracker {
	return &UnmappedTracker{byPath: make(map[string]*Unmapped)}
}

// Add records row if cl is unmapped.
func (t *UnmappedTracker) Add(row model.RawRow, cl Classification) {
	if cl.Mapped {
		return
	}
	key := model.AccountPathKey(cl.AccountPath)
	u, ok := t.byPath[key]
	if !ok {
		u = &Unmapped{AccountPath: cl.AccountPath, Suggestion: cl.Suggestion}
		t.byPath[key] = u
		t.order = append(t.order, key)
	}
	u.Count++
	u.TotalAmount = u.TotalAmount.Add(row.Amount.Abs())
	u.Lines = append(u.Lines, row.Line)
}

// Items returns the aggregates.
func (t *UnmappedTracker) Items() []Unmapped {
	out := make([]Unmapped, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, *t.byPath[k])
	}
	return out
}
