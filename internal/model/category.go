package model

import (
	"strings"
	"time"
)

// CategoryMapping maps an account path (or a prefix of one) to an internal category.
type CategoryMapping struct {
	ID          int64     `json:"id"`
	AccountPath string    `json:"accountPath"`
	Category    string    `json:"category"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NormalizeAccountPath trims each ":"-separated segment and drops empty ones.
// "Expenses : Tools" and "Expenses:Tools" normalize to the same path.
func NormalizeAccountPath(path string) string {
	parts := strings.Split(path, ":")
	out := parts[:0]
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ":")
}

// AccountPathKey is the case-insensitive lookup form of an account path.
func AccountPathKey(path string) string {
	return strings.ToLower(NormalizeAccountPath(path))
}

// KeywordRule suggests Category for account paths containing any of Keywords.
type KeywordRule struct {
	Category string   `json:"category" yaml:"category" mapstructure:"category"`
	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
}
