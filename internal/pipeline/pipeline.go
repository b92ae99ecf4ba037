// Package pipeline orchestrates the three-tier research pipeline: raw OHLCV
// history, derived features, and backtest insights. Each tier reads only the
// previous tier's persisted output plus its own, and is updated
// incrementally.
//
// The pipeline is the single writer for any (ticker, interval, stage) store
// key. Running two pipelines concurrently against the same key is a data
// race on the store; no locking is provided.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"medallion/internal/domain"
	"medallion/internal/fetch"
	"medallion/internal/indicator"
	"medallion/internal/store"
	"medallion/internal/strategy"
)

// Sentinel errors for checked pipeline conditions.
var (
	// ErrMissingDependency means a required upstream tier has not been
	// computed yet. The stage performs no update.
	ErrMissingDependency = errors.New("missing upstream data")

	// ErrInvalidStage means an erase request named an unknown stage. Nothing
	// is deleted.
	ErrInvalidStage = errors.New("invalid stage")
)

// Config holds the per-run pipeline parameters.
type Config struct {
	// Interval is the bar timeframe for every store key.
	Interval domain.Interval

	// DefaultStart is the fetch start used when no raw series exists.
	DefaultStart time.Time

	// LookbackPeriod is the RSI rolling window and the priming offset for
	// incremental feature updates.
	LookbackPeriod int

	// ZeroLoss is the RSI division-by-zero policy.
	ZeroLoss indicator.ZeroLossPolicy
}

// Pipeline wires a store, a market-data fetcher, and a strategy registry into
// the tier update operations.
type Pipeline struct {
	store    store.Store
	fetcher  fetch.Fetcher
	registry *strategy.Registry
	runs     *store.RunStore
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
	// retryDelay is the base backoff for fetch retries; tests zero it.
	retryDelay time.Duration
}

// New creates a Pipeline. The run-history store is optional; attach one with
// SetRunStore to record backtest summaries.
func New(s store.Store, fetcher fetch.Fetcher, registry *strategy.Registry, cfg Config) *Pipeline {
	return &Pipeline{
		store:      s,
		fetcher:    fetcher,
		registry:   registry,
		cfg:        cfg,
		log:        slog.Default().With("component", "pipeline"),
		now:        time.Now,
		retryDelay: time.Second,
	}
}

// SetRunStore attaches a run-history store. Backtest runs are recorded there
// in addition to the insights artifact.
func (p *Pipeline) SetRunStore(runs *store.RunStore) {
	p.runs = runs
}

// Run executes the full pipeline for one ticker: raw update, feature update,
// then backtest. Stage failures are logged and do not abort the later stages
// beyond their own dependency checks, matching the stage-boundary recovery
// policy: a stage whose upstream is absent simply reports no update.
func (p *Pipeline) Run(ctx context.Context, ticker, strategyName string, start, end time.Time) ([]domain.InsightRow, domain.TradeReport, error) {
	if err := p.UpdateRaw(ctx, ticker); err != nil {
		p.log.Warn("raw update failed", "ticker", ticker, "err", err)
	}
	if err := p.UpdateFeatures(ctx, ticker); err != nil {
		p.log.Warn("feature update failed", "ticker", ticker, "err", err)
	}
	return p.RunBacktest(ctx, ticker, strategyName, start, end)
}

// today returns the current date truncated to midnight UTC.
func (p *Pipeline) today() time.Time {
	t := p.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
