// Package fetch retrieves historical daily OHLCV bars from external
// market-data providers.
package fetch

import (
	"context"
	"time"

	"medallion/internal/domain"
)

// Fetcher is the interface implemented by market-data providers.
type Fetcher interface {
	// Name returns the provider identifier.
	Name() string

	// Fetch returns daily bars for ticker with dates in [start, end],
	// sorted ascending. Providers return an error for transport or API
	// failures; callers treat any failure as "zero new bars".
	Fetch(ctx context.Context, ticker string, start, end time.Time) ([]domain.Bar, error)
}

// midnightUTC truncates a timestamp to its calendar date in UTC.
func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
