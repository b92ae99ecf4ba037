package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"medallion/internal/domain"
	"medallion/internal/util"
)

// Compile-time interface check.
var _ Fetcher = (*YahooFetcher)(nil)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API. It needs
// no credentials and covers both equities and crypto pairs (BTC-USD etc).
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
	limiter *util.RateLimiter
}

// NewYahooFetcher creates a Yahoo Finance fetcher throttled to
// rateLimitPerMin requests per minute.
func NewYahooFetcher(rateLimitPerMin int) *YahooFetcher {
	return &YahooFetcher{
		Client:  &http.Client{Timeout: 30 * time.Second},
		BaseURL: "https://query1.finance.yahoo.com",
		limiter: util.NewRateLimiter(rateLimitPerMin),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
// Price arrays use pointers because Yahoo emits null entries for non-trading
// timestamps.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Fetch downloads daily bars for ticker in [start, end].
func (f *YahooFetcher) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]domain.Bar, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// period2 is exclusive; extend by one day so `end` itself is included.
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d&includeAdjustedClose=true",
		f.BaseURL,
		url.PathEscape(strings.ToUpper(ticker)),
		midnightUTC(start).Unix(),
		midnightUTC(end).AddDate(0, 0, 1).Unix(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, nil // valid response, no data in range
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: response missing quote data")
	}
	quote := result.Indicators.Quote[0]

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	upper := strings.ToUpper(ticker)
	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := deref(quote.Open[i]), deref(quote.High[i]), deref(quote.Low[i]), deref(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bars (holidays etc.)
		}

		adj := c
		if i < len(adjClose) && adjClose[i] != nil {
			adj = *adjClose[i]
		}

		date := midnightUTC(time.Unix(ts, 0))
		if date.Before(midnightUTC(start)) || date.After(midnightUTC(end)) {
			continue
		}

		bars = append(bars, domain.Bar{
			Ticker:   upper,
			Date:     date,
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			AdjClose: adj,
			Volume:   int64(deref(quote.Volume[i])),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
