// Package store defines storage interfaces for the pipeline tiers (raw bars,
// feature rows, backtest insights) and provides Parquet, in-memory, and
// SQLite-backed implementations.
package store

import (
	"context"

	"medallion/internal/domain"
)

// RawStore persists the raw OHLCV series, one entry per (ticker, interval).
type RawStore interface {
	// HasRaw reports whether a raw series exists for the key.
	HasRaw(ticker string, interval domain.Interval) bool

	// ReadRaw returns the stored raw series sorted ascending by date.
	ReadRaw(ctx context.Context, ticker string, interval domain.Interval) ([]domain.Bar, error)

	// UpsertRaw merges bars into the stored series: duplicate dates are
	// replaced (last write wins), new dates appended, and the result is kept
	// sorted ascending.
	UpsertRaw(ctx context.Context, ticker string, interval domain.Interval, bars []domain.Bar) error

	// DeleteRaw removes the raw series entry for the key.
	DeleteRaw(ticker string, interval domain.Interval) error
}

// FeatureStore persists the derived feature series, one entry per
// (ticker, interval).
type FeatureStore interface {
	HasFeatures(ticker string, interval domain.Interval) bool
	ReadFeatures(ctx context.Context, ticker string, interval domain.Interval) ([]domain.FeatureRow, error)

	// UpsertFeatures merges rows by date exactly like RawStore.UpsertRaw.
	UpsertFeatures(ctx context.Context, ticker string, interval domain.Interval, rows []domain.FeatureRow) error

	DeleteFeatures(ticker string, interval domain.Interval) error
}

// InsightStore persists backtest output artifacts. Unlike the raw and feature
// tiers, several artifacts (one per strategy) may coexist under the same
// (ticker, interval), and each write fully replaces its artifact.
type InsightStore interface {
	WriteInsights(ctx context.Context, ticker string, interval domain.Interval, strategy string, rows []domain.InsightRow) error
	ReadInsights(ctx context.Context, ticker string, interval domain.Interval, strategy string) ([]domain.InsightRow, error)

	// ListInsightArtifacts returns opaque artifact identifiers for every
	// strategy artifact stored under (ticker, interval).
	ListInsightArtifacts(ticker string, interval domain.Interval) ([]string, error)

	// DeleteInsightArtifact removes a single artifact by the identifier
	// returned from ListInsightArtifacts.
	DeleteInsightArtifact(artifact string) error
}

// Store is the full persistence surface a pipeline needs. The pipeline is the
// single writer for any (ticker, interval, stage) key; concurrent runs
// against the same key are not supported.
type Store interface {
	RawStore
	FeatureStore
	InsightStore
}
