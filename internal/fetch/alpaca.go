package fetch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"medallion/internal/domain"
)

// Compile-time interface check.
var _ Fetcher = (*AlpacaFetcher)(nil)

// AlpacaFetcher implements Fetcher for US equities via the Alpaca market-data
// API. Bars are requested fully adjusted, so Close doubles as the adjusted
// close.
type AlpacaFetcher struct {
	client *marketdata.Client
}

// NewAlpacaFetcher creates an AlpacaFetcher with the given credentials. An
// empty dataURL selects the SDK default endpoint.
func NewAlpacaFetcher(apiKey, apiSecret, dataURL string) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaFetcher{client: marketdata.NewClient(opts)}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// Fetch downloads daily bars for ticker in [start, end].
func (f *AlpacaFetcher) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	upper := strings.ToUpper(ticker)
	alpacaBars, err := f.client.GetBars(upper, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      midnightUTC(start),
		End:        midnightUTC(end),
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", upper, err)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Ticker:   upper,
			Date:     midnightUTC(ab.Timestamp),
			Open:     ab.Open,
			High:     ab.High,
			Low:      ab.Low,
			Close:    ab.Close,
			AdjClose: ab.Close,
			Volume:   int64(ab.Volume),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
