package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"medallion/internal/domain"
)

// Compile-time interface check.
var _ Store = (*ParquetStore)(nil)

// Stage directory names under the data root.
const (
	stageRaw      = "raw"
	stageFeatures = "features"
	stageInsights = "insights"
)

// insightSuffix is appended to the strategy name to form the artifact file.
const insightSuffix = "_results.parquet"

// ParquetStore implements Store using Parquet files on disk. The layout is
// one master file per tier:
//
//	<DataDir>/raw/<TICKER>/<interval>/data.parquet
//	<DataDir>/features/<TICKER>/<interval>/data.parquet
//	<DataDir>/insights/<TICKER>/<interval>/<strategy>_results.parquet
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// BarRecord is the Parquet schema for the raw tier.
type BarRecord struct {
	Ticker   string  `parquet:"ticker"`
	Date     int64   `parquet:"date,timestamp(millisecond)"` // Unix ms, midnight UTC
	Open     float64 `parquet:"open"`
	High     float64 `parquet:"high"`
	Low      float64 `parquet:"low"`
	Close    float64 `parquet:"close"`
	AdjClose float64 `parquet:"adj_close"`
	Volume   int64   `parquet:"volume"`
}

// FeatureRecord is the Parquet schema for the features tier.
type FeatureRecord struct {
	Ticker   string  `parquet:"ticker"`
	Date     int64   `parquet:"date,timestamp(millisecond)"`
	Open     float64 `parquet:"open"`
	High     float64 `parquet:"high"`
	Low      float64 `parquet:"low"`
	Close    float64 `parquet:"close"`
	AdjClose float64 `parquet:"adj_close"`
	Volume   int64   `parquet:"volume"`
	RSI      float64 `parquet:"rsi"`
}

// InsightRecord is the Parquet schema for the insights tier.
type InsightRecord struct {
	Ticker         string  `parquet:"ticker"`
	Date           int64   `parquet:"date,timestamp(millisecond)"`
	Open           float64 `parquet:"open"`
	High           float64 `parquet:"high"`
	Low            float64 `parquet:"low"`
	Close          float64 `parquet:"close"`
	AdjClose       float64 `parquet:"adj_close"`
	Volume         int64   `parquet:"volume"`
	RSI            float64 `parquet:"rsi"`
	Position       int64   `parquet:"position"`
	AssetReturn    float64 `parquet:"asset_return"`
	StrategyReturn float64 `parquet:"strategy_return"`
	AssetEquity    float64 `parquet:"asset_equity"`
	StrategyEquity float64 `parquet:"strategy_equity"`
}

// ---------------------------------------------------------------------------
// RawStore implementation
// ---------------------------------------------------------------------------

// HasRaw reports whether a raw master file exists for the key.
func (s *ParquetStore) HasRaw(ticker string, interval domain.Interval) bool {
	return fileExists(s.seriesPath(stageRaw, ticker, interval))
}

// ReadRaw reads the raw series from its master file.
func (s *ParquetStore) ReadRaw(_ context.Context, ticker string, interval domain.Interval) ([]domain.Bar, error) {
	records, err := readParquetFile[BarRecord](s.seriesPath(stageRaw, ticker, interval))
	if err != nil {
		return nil, fmt.Errorf("reading raw %s/%s: %w", ticker, interval, err)
	}

	bars := make([]domain.Bar, len(records))
	for i, r := range records {
		bars[i] = barFromRecord(r)
	}
	return bars, nil
}

// UpsertRaw merges bars into the raw master file, deduplicating by date with
// last-write-wins and keeping the file sorted ascending.
func (s *ParquetStore) UpsertRaw(_ context.Context, ticker string, interval domain.Interval, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	path := s.seriesPath(stageRaw, ticker, interval)
	existing, _ := readParquetFile[BarRecord](path)

	incoming := make([]BarRecord, len(bars))
	for i, b := range bars {
		incoming[i] = barToRecord(b)
	}

	merged := mergeByDate(existing, incoming, func(r BarRecord) int64 { return r.Date })
	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing raw %s/%s: %w", ticker, interval, err)
	}
	return nil
}

// DeleteRaw removes the raw master file for the key.
func (s *ParquetStore) DeleteRaw(ticker string, interval domain.Interval) error {
	return os.Remove(s.seriesPath(stageRaw, ticker, interval))
}

// ---------------------------------------------------------------------------
// FeatureStore implementation
// ---------------------------------------------------------------------------

func (s *ParquetStore) HasFeatures(ticker string, interval domain.Interval) bool {
	return fileExists(s.seriesPath(stageFeatures, ticker, interval))
}

func (s *ParquetStore) ReadFeatures(_ context.Context, ticker string, interval domain.Interval) ([]domain.FeatureRow, error) {
	records, err := readParquetFile[FeatureRecord](s.seriesPath(stageFeatures, ticker, interval))
	if err != nil {
		return nil, fmt.Errorf("reading features %s/%s: %w", ticker, interval, err)
	}

	rows := make([]domain.FeatureRow, len(records))
	for i, r := range records {
		rows[i] = featureFromRecord(r)
	}
	return rows, nil
}

func (s *ParquetStore) UpsertFeatures(_ context.Context, ticker string, interval domain.Interval, rows []domain.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	path := s.seriesPath(stageFeatures, ticker, interval)
	existing, _ := readParquetFile[FeatureRecord](path)

	incoming := make([]FeatureRecord, len(rows))
	for i, r := range rows {
		incoming[i] = featureToRecord(r)
	}

	merged := mergeByDate(existing, incoming, func(r FeatureRecord) int64 { return r.Date })
	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing features %s/%s: %w", ticker, interval, err)
	}
	return nil
}

func (s *ParquetStore) DeleteFeatures(ticker string, interval domain.Interval) error {
	return os.Remove(s.seriesPath(stageFeatures, ticker, interval))
}

// ---------------------------------------------------------------------------
// InsightStore implementation
// ---------------------------------------------------------------------------

// WriteInsights fully replaces the artifact for (ticker, interval, strategy).
func (s *ParquetStore) WriteInsights(_ context.Context, ticker string, interval domain.Interval, strategy string, rows []domain.InsightRow) error {
	records := make([]InsightRecord, len(rows))
	for i, r := range rows {
		records[i] = InsightRecord{
			Ticker:         r.Ticker,
			Date:           r.Date.UnixMilli(),
			Open:           r.Open,
			High:           r.High,
			Low:            r.Low,
			Close:          r.Close,
			AdjClose:       r.AdjClose,
			Volume:         r.Volume,
			RSI:            r.RSI,
			Position:       int64(r.Position),
			AssetReturn:    r.AssetReturn,
			StrategyReturn: r.StrategyReturn,
			AssetEquity:    r.AssetEquity,
			StrategyEquity: r.StrategyEquity,
		}
	}

	path := s.insightPath(ticker, interval, strategy)
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("writing insights %s/%s/%s: %w", ticker, interval, strategy, err)
	}
	return nil
}

func (s *ParquetStore) ReadInsights(_ context.Context, ticker string, interval domain.Interval, strategy string) ([]domain.InsightRow, error) {
	records, err := readParquetFile[InsightRecord](s.insightPath(ticker, interval, strategy))
	if err != nil {
		return nil, fmt.Errorf("reading insights %s/%s/%s: %w", ticker, interval, strategy, err)
	}

	rows := make([]domain.InsightRow, len(records))
	for i, r := range records {
		rows[i] = domain.InsightRow{
			FeatureRow: domain.FeatureRow{
				Bar: domain.Bar{
					Ticker:   r.Ticker,
					Date:     time.UnixMilli(r.Date).UTC(),
					Open:     r.Open,
					High:     r.High,
					Low:      r.Low,
					Close:    r.Close,
					AdjClose: r.AdjClose,
					Volume:   r.Volume,
				},
				RSI: r.RSI,
			},
			Position:       int(r.Position),
			AssetReturn:    r.AssetReturn,
			StrategyReturn: r.StrategyReturn,
			AssetEquity:    r.AssetEquity,
			StrategyEquity: r.StrategyEquity,
		}
	}
	return rows, nil
}

// ListInsightArtifacts returns the paths of every Parquet artifact stored
// under the insights directory for (ticker, interval).
func (s *ParquetStore) ListInsightArtifacts(ticker string, interval domain.Interval) ([]string, error) {
	dir := filepath.Join(s.DataDir, stageInsights, strings.ToUpper(ticker), string(interval))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var artifacts []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
			artifacts = append(artifacts, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(artifacts)
	return artifacts, nil
}

// DeleteInsightArtifact removes a single artifact file.
func (s *ParquetStore) DeleteInsightArtifact(artifact string) error {
	return os.Remove(artifact)
}

// ---------------------------------------------------------------------------
// Path and file helpers
// ---------------------------------------------------------------------------

func (s *ParquetStore) seriesPath(stage, ticker string, interval domain.Interval) string {
	return filepath.Join(s.DataDir, stage, strings.ToUpper(ticker), string(interval), "data.parquet")
}

func (s *ParquetStore) insightPath(ticker string, interval domain.Interval, strategy string) string {
	return filepath.Join(s.DataDir, stageInsights, strings.ToUpper(ticker), string(interval), strategy+insightSuffix)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeByDate deduplicates records by date key, preferring incoming records
// over existing ones. Results are sorted ascending by date.
func mergeByDate[T any](existing, incoming []T, dateOf func(T) int64) []T {
	seen := make(map[int64]T, len(existing)+len(incoming))
	for _, r := range existing {
		seen[dateOf(r)] = r
	}
	for _, r := range incoming {
		seen[dateOf(r)] = r
	}

	merged := make([]T, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return dateOf(merged[i]) < dateOf(merged[j])
	})
	return merged
}

func barToRecord(b domain.Bar) BarRecord {
	return BarRecord{
		Ticker:   b.Ticker,
		Date:     b.Date.UnixMilli(),
		Open:     b.Open,
		High:     b.High,
		Low:      b.Low,
		Close:    b.Close,
		AdjClose: b.AdjClose,
		Volume:   b.Volume,
	}
}

func barFromRecord(r BarRecord) domain.Bar {
	return domain.Bar{
		Ticker:   r.Ticker,
		Date:     time.UnixMilli(r.Date).UTC(),
		Open:     r.Open,
		High:     r.High,
		Low:      r.Low,
		Close:    r.Close,
		AdjClose: r.AdjClose,
		Volume:   r.Volume,
	}
}

func featureToRecord(r domain.FeatureRow) FeatureRecord {
	return FeatureRecord{
		Ticker:   r.Ticker,
		Date:     r.Date.UnixMilli(),
		Open:     r.Open,
		High:     r.High,
		Low:      r.Low,
		Close:    r.Close,
		AdjClose: r.AdjClose,
		Volume:   r.Volume,
		RSI:      r.RSI,
	}
}

func featureFromRecord(r FeatureRecord) domain.FeatureRow {
	return domain.FeatureRow{
		Bar: domain.Bar{
			Ticker:   r.Ticker,
			Date:     time.UnixMilli(r.Date).UTC(),
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			AdjClose: r.AdjClose,
			Volume:   r.Volume,
		},
		RSI: r.RSI,
	}
}
