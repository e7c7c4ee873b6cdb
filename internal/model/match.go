package model

// MatchType tags how a MatchCandidate was produced.
type MatchType string

const (
	MatchExactNumber   MatchType = "exact_number"
	MatchExactName     MatchType = "exact_name"
	MatchAliasExact    MatchType = "alias_exact"
	MatchAliasPrefix   MatchType = "alias_prefix"
	MatchAliasContains MatchType = "alias_contains"
	MatchFuzzy         MatchType = "fuzzy"
	MatchExtracted     MatchType = "extracted"
	MatchManual        MatchType = "manual"
)

// MatchCandidate is a scored association between a row and one entity.
type MatchCandidate struct {
	Pool        Pool      `json:"pool"`
	EntityID    string    `json:"entityId"`
	DisplayName string    `json:"displayName"`
	Confidence  int       `json:"confidence"` // 0..100
	MatchType   MatchType `json:"matchType"`
}

// ResolutionStatus is the outcome of resolving one row against one pool.
type ResolutionStatus string

const (
	StatusMatched    ResolutionStatus = "matched"
	StatusSuggested  ResolutionStatus = "suggested"
	StatusUnresolved ResolutionStatus = "unresolved"
	StatusSkipped    ResolutionStatus = "skipped" // no input text for the pool
)
