// Package resolve matches the free-text names and references of import rows
// against known vendors, clients and projects.
package resolve

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/crewledger/crewledger/internal/keys"
	"github.com/crewledger/crewledger/internal/matchlog"
	"github.com/crewledger/crewledger/internal/model"
)

// Default thresholds.
const (
	DefaultAutoMatch      = 75
	DefaultSuggest        = 40
	DefaultMaxSuggestions = 3
)

const (
	confExact         = 100
	confAliasExact    = 95
	confAliasPrefix   = 90
	confAliasContains = 80
	confExtracted     = 85
)

// DefaultProjectPatterns pull project numbers like "24-101" or "WO# 2231" out
// of longer references. The first capture group is the identifier.
var DefaultProjectPatterns = []string{
	`\b(\d{2}-\d{3,4})\b`,
	`(?i)\bWO\s*#?\s*(\d{3,6})\b`,
}

// Scorer rates how well input matches a candidate name, 0..100.
type Scorer func(input, candidate string) int

// Options tunes a Resolver.
type Options struct {
	AutoMatch       int
	Suggest         int
	MaxSuggestions  int
	ProjectPatterns []string
	Scorer          Scorer
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		AutoMatch:       DefaultAutoMatch,
		Suggest:         DefaultSuggest,
		MaxSuggestions:  DefaultMaxSuggestions,
		ProjectPatterns: DefaultProjectPatterns,
		Scorer:          Score,
	}
}

// Resolver is safe for concurrent use; it only reads the pools it was built with.
type Resolver struct {
	pools    model.Pools
	opts     Options
	patterns []*regexp.Regexp
}

// New builds a resolver over read-only candidate pools.
func New(pools model.Pools, opts Options) (*Resolver, error) {
	if opts.Scorer == nil {
		opts.Scorer = Score
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = DefaultMaxSuggestions
	}
	if opts.Suggest > opts.AutoMatch {
		return nil, fmt.Errorf("suggest threshold %d above auto-match threshold %d", opts.Suggest, opts.AutoMatch)
	}
	r := &Resolver{pools: pools, opts: opts}
	for _, p := range opts.ProjectPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling project pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// PoolResolution is the outcome of resolving one row against one pool.
type PoolResolution struct {
	Pool        model.Pool             `json:"pool"`
	Input       string                 `json:"input"`
	Active      *model.MatchCandidate  `json:"active,omitempty"`
	Suggestions []model.MatchCandidate `json:"suggestions,omitempty"`
	Status      model.ResolutionStatus `json:"status"`
}

// RowResolution holds a row's per-pool outcomes and its match-log entries.
type RowResolution struct {
	Line  int              `json:"line"`
	Pools []PoolResolution `json:"pools"`
	Log   []matchlog.Entry `json:"-"`
}

// Get returns the resolution for pool.
func (r RowResolution) Get(pool model.Pool) (PoolResolution, bool) {
	for _, p := range r.Pools {
		if p.Pool == pool {
			return p, true
		}
	}
	return PoolResolution{}, false
}

// EntityID returns the active match id for pool, or nil.
func (r RowResolution) EntityID(pool model.Pool) *string {
	p, ok := r.Get(pool)
	if !ok || p.Active == nil {
		return nil
	}
	id := p.Active.EntityID
	return &id
}

// Unresolved returns pools that need manual resolution.
func (r RowResolution) Unresolved() []PoolResolution {
	var out []PoolResolution
	for _, p := range r.Pools {
		if p.Status == model.StatusSuggested || p.Status == model.StatusUnresolved {
			out = append(out, p)
		}
	}
	return out
}

// PoolsFor returns the pools a row on track is resolved against.
func PoolsFor(track model.Track) []model.Pool {
	if track == model.TrackRevenue {
		return []model.Pool{model.PoolClients, model.PoolProjects}
	}
	return []model.Pool{model.PoolVendors, model.PoolProjects}
}

// Resolve matches one row. It has no side effects.
func (r *Resolver) Resolve(row model.RawRow) RowResolution {
	res := RowResolution{Line: row.Line}
	for _, pool := range PoolsFor(row.Track) {
		var pr PoolResolution
		var rejected *model.MatchCandidate
		if pool == model.PoolProjects {
			pr, rejected = r.resolveProject(row)
		} else {
			pr, rejected = r.resolveNamed(pool, row.Name)
		}
		res.Pools = append(res.Pools, pr)
		res.Log = append(res.Log, logEntries(row.Line, pr, rejected)...)
	}
	return res
}

func (r *Resolver) resolveNamed(pool model.Pool, input string) (PoolResolution, *model.MatchCandidate) {
	pr := PoolResolution{Pool: pool, Input: input}
	if strings.TrimSpace(input) == "" {
		pr.Status = model.StatusSkipped
		return pr, nil
	}
	_, rejected := r.match(&pr, r.pools.Get(pool))
	return pr, rejected
}

// resolveProject uses the Project/WO # column; pattern extraction over the
// reference, description and name is the last resort.
func (r *Resolver) resolveProject(row model.RawRow) (PoolResolution, *model.MatchCandidate) {
	input := strings.TrimSpace(row.ProjectReference)
	pr := PoolResolution{Pool: model.PoolProjects, Input: input}
	projects := r.pools.Projects

	var rejected *model.MatchCandidate
	if input != "" {
		var ok bool
		if ok, rejected = r.match(&pr, projects); ok {
			return pr, nil
		}
	}
	if c, source, ok := r.extract(projects, input, row.Description, row.Name); ok {
		if pr.Input == "" {
			pr.Input = source
		}
		pr.Active = &c
		pr.Status = model.StatusMatched
		return pr, nil
	}
	if input == "" {
		pr.Status = model.StatusSkipped
	}
	return pr, rejected
}

// match runs the exact, alias and fuzzy tiers. It reports whether an active
// match was selected and, when nothing reached the suggestion threshold, the
// best rejected fuzzy candidate.
func (r *Resolver) match(pr *PoolResolution, entities []model.Entity) (bool, *model.MatchCandidate) {
	norm := keys.NormalizeName(pr.Input)

	for _, tier := range []func(model.Pool, string, []model.Entity) []model.MatchCandidate{
		exactNumber, exactName, aliasExact, aliasPartial,
	} {
		if hits := tier(pr.Pool, norm, entities); len(hits) > 0 {
			sortByConfidence(hits)
			pr.Active = &hits[0]
			pr.Suggestions = r.limit(hits[1:])
			pr.Status = model.StatusMatched
			return true, nil
		}
	}

	hits, best := r.fuzzy(pr.Pool, pr.Input, entities)
	if len(hits) > 0 && hits[0].Confidence >= r.opts.AutoMatch {
		pr.Active = &hits[0]
		pr.Suggestions = r.limit(hits[1:])
		pr.Status = model.StatusMatched
		return true, nil
	}
	pr.Suggestions = r.limit(hits)
	if len(pr.Suggestions) > 0 {
		pr.Status = model.StatusSuggested
		return false, nil
	}
	pr.Status = model.StatusUnresolved
	return false, best
}

func candidate(pool model.Pool, e model.Entity, conf int, mt model.MatchType) model.MatchCandidate {
	return model.MatchCandidate{
		Pool:        pool,
		EntityID:    e.ID,
		DisplayName: e.DisplayName,
		Confidence:  conf,
		MatchType:   mt,
	}
}

func exactNumber(pool model.Pool, norm string, entities []model.Entity) []model.MatchCandidate {
	if pool != model.PoolProjects {
		return nil
	}
	var hits []model.MatchCandidate
	for _, e := range entities {
		if e.Number != "" && keys.NormalizeName(e.Number) == norm {
			hits = append(hits, candidate(pool, e, confExact, model.MatchExactNumber))
		}
	}
	return hits
}

func exactName(pool model.Pool, norm string, entities []model.Entity) []model.MatchCandidate {
	var hits []model.MatchCandidate
	for _, e := range entities {
		if keys.NormalizeName(e.DisplayName) == norm {
			hits = append(hits, candidate(pool, e, confExact, model.MatchExactName))
		}
	}
	return hits
}

func aliasExact(pool model.Pool, norm string, entities []model.Entity) []model.MatchCandidate {
	var hits []model.MatchCandidate
	for _, e := range entities {
		for _, a := range e.Aliases {
			if keys.NormalizeName(a.Value) == norm {
				hits = append(hits, candidate(pool, e, confAliasExact, model.MatchAliasExact))
				break
			}
		}
	}
	return hits
}

// aliasPartial matches prefix aliases at 90 and contains aliases at 80; an
// entity contributes its best alias only.
func aliasPartial(pool model.Pool, norm string, entities []model.Entity) []model.MatchCandidate {
	var hits []model.MatchCandidate
	for _, e := range entities {
		best := 0
		mt := model.MatchAliasContains
		for _, a := range e.Aliases {
			v := keys.NormalizeName(a.Value)
			if v == "" {
				continue
			}
			switch a.Match {
			case model.AliasPrefix:
				if strings.HasPrefix(norm, v) && confAliasPrefix > best {
					best, mt = confAliasPrefix, model.MatchAliasPrefix
				}
			case model.AliasContains:
				if strings.Contains(norm, v) && confAliasContains > best {
					best, mt = confAliasContains, model.MatchAliasContains
				}
			}
		}
		if best > 0 {
			hits = append(hits, candidate(pool, e, best, mt))
		}
	}
	return hits
}

// fuzzy scores input against every display name and alias. Candidates at or
// above the suggestion threshold are returned best first.
func (r *Resolver) fuzzy(pool model.Pool, input string, entities []model.Entity) ([]model.MatchCandidate, *model.MatchCandidate) {
	var hits []model.MatchCandidate
	var best *model.MatchCandidate
	for _, e := range entities {
		score := r.opts.Scorer(input, e.DisplayName)
		for _, a := range e.Aliases {
			score = max(score, r.opts.Scorer(input, a.Value))
		}
		c := candidate(pool, e, score, model.MatchFuzzy)
		if score >= r.opts.Suggest {
			hits = append(hits, c)
			continue
		}
		if score > 0 && (best == nil || score > best.Confidence) {
			best = &c
		}
	}
	sortByConfidence(hits)
	return hits, best
}

func (r *Resolver) extract(projects []model.Entity, texts ...string) (model.MatchCandidate, string, bool) {
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, re := range r.patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				ident := m[0]
				if len(m) > 1 && m[1] != "" {
					ident = m[1]
				}
				ident = keys.NormalizeName(ident)
				for _, e := range projects {
					if e.Number != "" && keys.NormalizeName(e.Number) == ident {
						return candidate(model.PoolProjects, e, confExtracted, model.MatchExtracted), text, true
					}
				}
			}
		}
	}
	return model.MatchCandidate{}, "", false
}

func (r *Resolver) limit(cs []model.MatchCandidate) []model.MatchCandidate {
	if len(cs) > r.opts.MaxSuggestions {
		cs = cs[:r.opts.MaxSuggestions]
	}
	if len(cs) == 0 {
		return nil
	}
	return append([]model.MatchCandidate(nil), cs...)
}

// sortByConfidence orders best first; equal confidences keep pool order.
func sortByConfidence(cs []model.MatchCandidate) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Confidence > cs[j].Confidence })
}

func logEntries(line int, pr PoolResolution, rejected *model.MatchCandidate) []matchlog.Entry {
	var out []matchlog.Entry
	if pr.Active != nil {
		out = append(out, matchlog.FromCandidate(line, pr.Input, *pr.Active, matchlog.DecisionMatched))
	}
	for _, s := range pr.Suggestions {
		out = append(out, matchlog.FromCandidate(line, pr.Input, s, matchlog.DecisionSuggested))
	}
	if pr.Status == model.StatusUnresolved {
		if rejected != nil {
			out = append(out, matchlog.FromCandidate(line, pr.Input, *rejected, matchlog.DecisionRejected))
		}
		out = append(out, matchlog.Entry{Line: line, Pool: pr.Pool, Input: pr.Input, Decision: matchlog.DecisionUnresolved})
	}
	return out
}
