// Package pipeline runs an uploaded export through parsing, deduplication,
// entity resolution, classification and reconciliation, and commits the
// reviewed result as a single batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crewledger/crewledger/internal/batch"
	"github.com/crewledger/crewledger/internal/categories"
	"github.com/crewledger/crewledger/internal/config"
	"github.com/crewledger/crewledger/internal/dedup"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/reconcile"
	"github.com/crewledger/crewledger/internal/resolve"
)

var (
	ErrInvalidCommitSet = errors.New("invalid commit set")
	ErrInvalidOverride  = errors.New("invalid entity override")
	ErrInvalidMapping   = errors.New("invalid category mapping")
)

// Config tunes an Engine.
type Config struct {
	Tolerance         decimal.Decimal
	Workers           int
	HistoryWindowDays int
	FallbackCategory  string
	KeywordRules      []model.KeywordRule
	Resolve           resolve.Options
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Tolerance:         reconcile.DefaultTolerance,
		Workers:           8,
		HistoryWindowDays: dedup.DefaultWindowDays,
		FallbackCategory:  categories.Fallback,
		KeywordRules:      categories.DefaultKeywordRules(),
		Resolve:           resolve.DefaultOptions(),
	}
}

// ConfigFrom builds engine settings from the loaded configuration.
func ConfigFrom(c *config.Config) (Config, error) {
	tol, err := c.Import.ToleranceDecimal()
	if err != nil {
		return Config{}, err
	}
	opts := resolve.DefaultOptions()
	opts.AutoMatch = c.Matching.AutoMatch
	opts.Suggest = c.Matching.Suggest
	opts.MaxSuggestions = c.Matching.MaxSuggestions
	if len(c.Matching.ProjectPatterns) > 0 {
		opts.ProjectPatterns = c.Matching.ProjectPatterns
	}
	return Config{
		Tolerance:         tol,
		Workers:           c.Import.Workers,
		HistoryWindowDays: c.Import.HistoryWindowDays,
		FallbackCategory:  c.Import.FallbackCategory,
		KeywordRules:      c.KeywordRules(),
		Resolve:           opts,
	}, nil
}

// Engine runs import previews and commits them.
type Engine struct {
	store   Store
	batches *batch.Service
	chart   *categories.Service
	cfg     Config
	now     func() time.Time
}

// New creates an Engine.
func New(st Store, cfg Config) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.FallbackCategory == "" {
		cfg.FallbackCategory = categories.Fallback
	}
	return &Engine{
		store:   st,
		batches: batch.NewService(st),
		chart:   categories.NewService(categories.DefaultChart()),
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Batches exposes the batch audit service.
func (e *Engine) Batches() *batch.Service {
	return e.batches
}

// Rollback reverts a committed batch.
func (e *Engine) Rollback(ctx context.Context, batchID string) (batch.RollbackResult, error) {
	res, err := e.batches.Rollback(ctx, batchID)
	if err != nil {
		return batch.RollbackResult{}, fmt.Errorf("rolling back %s: %w", batchID, err)
	}
	return res, nil
}
