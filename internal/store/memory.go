package store

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"medallion/internal/domain"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store in memory. It mirrors the ParquetStore merge
// semantics and is used for tests.
type MemoryStore struct {
	raw      map[string][]domain.Bar
	features map[string][]domain.FeatureRow
	insights map[string][]domain.InsightRow
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		raw:      make(map[string][]domain.Bar),
		features: make(map[string][]domain.FeatureRow),
		insights: make(map[string][]domain.InsightRow),
	}
}

func seriesKey(ticker string, interval domain.Interval) string {
	return strings.ToUpper(ticker) + "/" + string(interval)
}

func insightKey(ticker string, interval domain.Interval, strategy string) string {
	return seriesKey(ticker, interval) + "/" + strategy + insightSuffix
}

// ---------------------------------------------------------------------------
// RawStore implementation
// ---------------------------------------------------------------------------

func (s *MemoryStore) HasRaw(ticker string, interval domain.Interval) bool {
	_, ok := s.raw[seriesKey(ticker, interval)]
	return ok
}

func (s *MemoryStore) ReadRaw(_ context.Context, ticker string, interval domain.Interval) ([]domain.Bar, error) {
	bars, ok := s.raw[seriesKey(ticker, interval)]
	if !ok {
		return nil, fmt.Errorf("raw %s/%s: %w", ticker, interval, os.ErrNotExist)
	}
	out := make([]domain.Bar, len(bars))
	copy(out, bars)
	return out, nil
}

func (s *MemoryStore) UpsertRaw(_ context.Context, ticker string, interval domain.Interval, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	key := seriesKey(ticker, interval)
	s.raw[key] = mergeByDate(s.raw[key], bars, func(b domain.Bar) int64 { return b.Date.UnixMilli() })
	return nil
}

func (s *MemoryStore) DeleteRaw(ticker string, interval domain.Interval) error {
	key := seriesKey(ticker, interval)
	if _, ok := s.raw[key]; !ok {
		return os.ErrNotExist
	}
	delete(s.raw, key)
	return nil
}

// ---------------------------------------------------------------------------
// FeatureStore implementation
// ---------------------------------------------------------------------------

func (s *MemoryStore) HasFeatures(ticker string, interval domain.Interval) bool {
	_, ok := s.features[seriesKey(ticker, interval)]
	return ok
}

func (s *MemoryStore) ReadFeatures(_ context.Context, ticker string, interval domain.Interval) ([]domain.FeatureRow, error) {
	rows, ok := s.features[seriesKey(ticker, interval)]
	if !ok {
		return nil, fmt.Errorf("features %s/%s: %w", ticker, interval, os.ErrNotExist)
	}
	out := make([]domain.FeatureRow, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *MemoryStore) UpsertFeatures(_ context.Context, ticker string, interval domain.Interval, rows []domain.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	key := seriesKey(ticker, interval)
	s.features[key] = mergeByDate(s.features[key], rows, func(r domain.FeatureRow) int64 { return r.Date.UnixMilli() })
	return nil
}

func (s *MemoryStore) DeleteFeatures(ticker string, interval domain.Interval) error {
	key := seriesKey(ticker, interval)
	if _, ok := s.features[key]; !ok {
		return os.ErrNotExist
	}
	delete(s.features, key)
	return nil
}

// ---------------------------------------------------------------------------
// InsightStore implementation
// ---------------------------------------------------------------------------

func (s *MemoryStore) WriteInsights(_ context.Context, ticker string, interval domain.Interval, strategy string, rows []domain.InsightRow) error {
	out := make([]domain.InsightRow, len(rows))
	copy(out, rows)
	s.insights[insightKey(ticker, interval, strategy)] = out
	return nil
}

func (s *MemoryStore) ReadInsights(_ context.Context, ticker string, interval domain.Interval, strategy string) ([]domain.InsightRow, error) {
	rows, ok := s.insights[insightKey(ticker, interval, strategy)]
	if !ok {
		return nil, fmt.Errorf("insights %s/%s/%s: %w", ticker, interval, strategy, os.ErrNotExist)
	}
	out := make([]domain.InsightRow, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *MemoryStore) ListInsightArtifacts(ticker string, interval domain.Interval) ([]string, error) {
	prefix := seriesKey(ticker, interval) + "/"
	var artifacts []string
	for key := range s.insights {
		if strings.HasPrefix(key, prefix) {
			artifacts = append(artifacts, key)
		}
	}
	sort.Strings(artifacts)
	return artifacts, nil
}

func (s *MemoryStore) DeleteInsightArtifact(artifact string) error {
	if _, ok := s.insights[artifact]; !ok {
		return os.ErrNotExist
	}
	delete(s.insights, artifact)
	return nil
}
