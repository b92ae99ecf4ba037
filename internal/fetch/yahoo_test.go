package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// Unix seconds at midnight UTC for 2024-01-02 through 2024-01-04. The middle
// day is a null bar, the way Yahoo reports non-trading timestamps.
const chartJSON = `{
  "chart": {
    "result": [{
      "timestamp": [1704153600, 1704240000, 1704326400],
      "indicators": {
        "quote": [{
          "open":   [100.0, null, 102.0],
          "high":   [101.0, null, 103.5],
          "low":    [99.0,  null, 101.0],
          "close":  [100.5, null, 103.0],
          "volume": [50000, null, 60000]
        }],
        "adjclose": [{
          "adjclose": [99.8, null, 102.4]
        }]
      }
    }],
    "error": null
  }
}`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := NewYahooFetcher(600)
	f.BaseURL = srv.URL
	return f
}

func TestYahooFetch(t *testing.T) {
	var gotPath, gotQuery string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(chartJSON))
	})

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	bars, err := f.Fetch(context.Background(), "nvda", start, end)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotPath != "/v8/finance/chart/NVDA" {
		t.Errorf("request path = %q, want the uppercased ticker", gotPath)
	}
	if !strings.Contains(gotQuery, "interval=1d") || !strings.Contains(gotQuery, "includeAdjustedClose=true") {
		t.Errorf("query = %q, missing expected parameters", gotQuery)
	}

	// The null middle bar is skipped.
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}

	b := bars[0]
	if b.Ticker != "NVDA" {
		t.Errorf("Ticker = %q, want NVDA", b.Ticker)
	}
	if !b.Date.Equal(start) {
		t.Errorf("first bar date = %s, want %s", b.Date, start)
	}
	if b.Close != 100.5 || b.AdjClose != 99.8 {
		t.Errorf("first bar Close/AdjClose = %v/%v, want 100.5/99.8", b.Close, b.AdjClose)
	}
	if b.Volume != 50000 {
		t.Errorf("first bar Volume = %d, want 50000", b.Volume)
	}

	if !bars[1].Date.Equal(end) {
		t.Errorf("second bar date = %s, want %s", bars[1].Date, end)
	}
	if bars[1].AdjClose != 102.4 {
		t.Errorf("second bar AdjClose = %v, want 102.4", bars[1].AdjClose)
	}
}

func TestYahooFetchWindowFilter(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	})

	// Only the first timestamp falls inside the window.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars, err := f.Fetch(context.Background(), "NVDA", start, end)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1", len(bars))
	}
	if !bars[0].Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("bar date = %s", bars[0].Date)
	}
}

func TestYahooFetchAPIError(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})

	_, err := f.Fetch(context.Background(), "BOGUS", time.Now().AddDate(0, 0, -5), time.Now())
	if err == nil || !strings.Contains(err.Error(), "No data found") {
		t.Errorf("err = %v, want the API error description", err)
	}
}

func TestYahooFetchHTTPError(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := f.Fetch(context.Background(), "NVDA", time.Now().AddDate(0, 0, -5), time.Now())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("err = %v, want a status error", err)
	}
}

func TestYahooFetchEmptyResult(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`))
	})

	bars, err := f.Fetch(context.Background(), "NVDA", time.Now().AddDate(0, 0, -5), time.Now())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("got %d bars, want 0", len(bars))
	}
}
