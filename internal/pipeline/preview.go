package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crewledger/crewledger/internal/classify"
	"github.com/crewledger/crewledger/internal/dedup"
	"github.com/crewledger/crewledger/internal/id"
	"github.com/crewledger/crewledger/internal/importer"
	"github.com/crewledger/crewledger/internal/keys"
	"github.com/crewledger/crewledger/internal/logger"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/reconcile"
	"github.com/crewledger/crewledger/internal/resolve"
)

// Source is one uploaded export, already read into records.
type Source struct {
	FileName string
	Records  []importer.Record
}

// Row is a row that survived both deduplication passes, with its key,
// category and entity decisions.
type Row struct {
	Row            model.RawRow            `json:"row"`
	Key            string                  `json:"key"`
	Classification classify.Classification `json:"classification"`
	Resolution     resolve.RowResolution   `json:"resolution"`
}

// UnresolvedEntity flags a row and pool that need a reviewer's decision.
type UnresolvedEntity struct {
	Line        int                    `json:"line"`
	Pool        model.Pool             `json:"pool"`
	Input       string                 `json:"input"`
	Status      model.ResolutionStatus `json:"status"`
	Suggestions []model.MatchCandidate `json:"suggestions"`
}

// Preview is everything the reviewer sees before committing.
type Preview struct {
	ID                 string                   `json:"id"`
	FileName           string                   `json:"fileName"`
	CreatedAt          time.Time                `json:"createdAt"`
	UniqueRows         []Row                    `json:"uniqueRows"`
	InFileDuplicates   []dedup.InFileDuplicate  `json:"inFileDuplicates"`
	HistoryDuplicates  []dedup.HistoryDuplicate `json:"historyDuplicates"`
	UnresolvedEntities []UnresolvedEntity       `json:"unresolvedEntities"`
	UnmappedCategories []classify.Unmapped      `json:"unmappedCategories"`
	Reconciliation     reconcile.Result         `json:"reconciliation"`
	Errors             []importer.RowError      `json:"errors"`
}

// DuplicateCount is the number of rows excluded as duplicates.
func (p *Preview) DuplicateCount() int {
	return len(p.InFileDuplicates) + len(p.HistoryDuplicates)
}

// Preview runs parsing through reconciliation. Nothing is written.
func (e *Engine) Preview(ctx context.Context, src Source) (*Preview, error) {
	log := logger.FromContext(ctx).With("file", src.FileName)

	parsed := importer.Parse(src.Records)
	for _, re := range parsed.Errors {
		log.Warn("row rejected", "line", re.Line, "field", re.Field, "value", re.Value, "error", re.Message)
	}
	log.Debug("parsed", "rows", len(parsed.Rows), "errors", len(parsed.Errors))

	inFile := dedup.InFile(parsed.Rows)
	log.Debug("in-file dedup", "unique", len(inFile.Unique), "duplicates", len(inFile.Duplicates))

	var historical []model.HistoricalRow
	if from, to, ok := dedup.Window(inFile.Unique, e.cfg.HistoryWindowDays); ok {
		h, err := e.store.HistoryBetween(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		historical = h
	}
	hist := dedup.History(inFile.Unique, historical)
	log.Debug("history dedup", "historical", len(historical), "unique", len(hist.Unique), "duplicates", len(hist.Duplicates))

	pools, err := e.store.LoadPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}
	resolver, err := resolve.New(pools, e.cfg.Resolve)
	if err != nil {
		return nil, fmt.Errorf("building resolver: %w", err)
	}
	classifier, err := e.classifier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.resolveAndClassify(ctx, hist.Unique, resolver, classifier)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		ID:                id.NewPreviewID(),
		FileName:          src.FileName,
		CreatedAt:         e.now(),
		UniqueRows:        rows,
		InFileDuplicates:  orEmpty(inFile.Duplicates),
		HistoryDuplicates: orEmpty(hist.Duplicates),
		Reconciliation:    reconcile.Calculate(hist.Duplicates, e.cfg.Tolerance),
		Errors:            orEmpty(parsed.Errors),
	}
	p.summarize()

	if !p.Reconciliation.IsAligned {
		log.Warn("reconciliation mismatch",
			"existing", p.Reconciliation.ExistingTotal.StringFixed(2),
			"duplicates", p.Reconciliation.DuplicateTotal.StringFixed(2),
			"difference", p.Reconciliation.Difference.StringFixed(2))
	}
	log.Info("preview ready", "preview_id", p.ID, "unique", len(p.UniqueRows), "duplicates", p.DuplicateCount(),
		"unresolved", len(p.UnresolvedEntities), "unmapped", len(p.UnmappedCategories), "errors", len(p.Errors))
	return p, nil
}

func (e *Engine) classifier(ctx context.Context) (*classify.Classifier, error) {
	mappings, err := e.store.ActiveMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading category mappings: %w", err)
	}
	return classify.New(mappings, e.cfg.KeywordRules, e.cfg.FallbackCategory), nil
}

// resolveAndClassify fans rows out over a bounded worker group. Each worker
// writes only its own index, so results keep file order.
func (e *Engine) resolveAndClassify(ctx context.Context, in []model.RawRow, r *resolve.Resolver, c *classify.Classifier) ([]Row, error) {
	out := make([]Row, len(in))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, row := range in {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Row{
				Row:            row,
				Key:            keys.KeyFor(row),
				Classification: c.Classify(row.AccountPath),
				Resolution:     r.Resolve(row),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolving rows: %w", err)
	}
	return out, nil
}

// summarize rebuilds the review lists from UniqueRows.
func (p *Preview) summarize() {
	tracker := classify.NewUnmappedTracker()
	p.UnresolvedEntities = []UnresolvedEntity{}
	for _, r := range p.UniqueRows {
		tracker.Add(r.Row, r.Classification)
		for _, pr := range r.Resolution.Unresolved() {
			p.UnresolvedEntities = append(p.UnresolvedEntities, UnresolvedEntity{
				Line:        r.Row.Line,
				Pool:        pr.Pool,
				Input:       pr.Input,
				Status:      pr.Status,
				Suggestions: orEmpty(pr.Suggestions),
			})
		}
	}
	p.UnmappedCategories = tracker.Items()
}

// ResolveCategory saves path → category as an active mapping and returns a
// copy of p with every row reclassified.
func (e *Engine) ResolveCategory(ctx context.Context, p *Preview, path, category string) (*Preview, error) {
	path = model.NormalizeAccountPath(path)
	category = strings.TrimSpace(category)
	if path == "" || category == "" {
		return nil, fmt.Errorf("%w: account path and category are required", ErrInvalidMapping)
	}
	category = e.chart.Canonical(category)

	if _, err := e.store.UpsertMapping(ctx, path, category); err != nil {
		return nil, fmt.Errorf("saving mapping %s: %w", path, err)
	}
	classifier, err := e.classifier(ctx)
	if err != nil {
		return nil, err
	}

	next := *p
	next.UniqueRows = make([]Row, len(p.UniqueRows))
	for i, r := range p.UniqueRows {
		r.Classification = classifier.Classify(r.Row.AccountPath)
		next.UniqueRows[i] = r
	}
	next.summarize()

	logger.FromContext(ctx).Info("category mapping saved", "file", p.FileName, "account_path", path, "category", category,
		"still_unmapped", len(next.UnmappedCategories))
	return &next, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
