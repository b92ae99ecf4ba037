// Package domain defines the core data types shared across the pipeline:
// price bars, feature rows, insight rows, trades, and run summaries.
package domain

import "time"

// Interval identifies the bar timeframe of a series.
type Interval string

// IntervalDaily is the only interval currently gathered.
const IntervalDaily Interval = "daily"

// AssetClass distinguishes continuously-traded assets from those bound to an
// exchange calendar.
type AssetClass string

const (
	AssetClassEquity AssetClass = "equity"
	AssetClassCrypto AssetClass = "crypto"
)

// Position states. A position is binary: flat or long.
const (
	Flat = 0
	Long = 1
)

// Bar is one OHLCV bar for one ticker. Date is truncated to midnight UTC and
// is unique within a series.
type Bar struct {
	Ticker   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// FeatureRow is a Bar enriched with derived indicators. RSI is NaN while the
// rolling window has not yet filled; persisted feature series only contain
// rows with a defined RSI.
type FeatureRow struct {
	Bar
	RSI float64
}

// InsightRow is the per-bar output of a backtest run: a FeatureRow plus the
// tradable position and the daily/cumulative performance columns.
type InsightRow struct {
	FeatureRow
	Position       int
	AssetReturn    float64
	StrategyReturn float64
	AssetEquity    float64
	StrategyEquity float64
}

// Trade is one closed round-trip reconstructed from the position series.
type Trade struct {
	EntryDate    time.Time
	ExitDate     time.Time
	TradingDays  int
	CalendarDays int
	Return       float64
}

// TradeReport aggregates the trade ledger of one backtest run. All fields are
// zero when no trades were taken.
type TradeReport struct {
	Trades   []Trade
	WinRate  float64
	AvgWin   float64
	AvgLoss  float64
	Best     float64
	Worst    float64
}

// RunSummary is the persisted record of one backtest run.
type RunSummary struct {
	ID             int64
	Ticker         string
	Interval       Interval
	Strategy       string
	RunAt          time.Time
	Bars           int
	Trades         int
	WinRate        float64
	AssetReturn    float64
	StrategyReturn float64
}

// LastDate returns the date of the final bar, or the zero time for an empty
// series.
func LastDate(bars []Bar) time.Time {
	if len(bars) == 0 {
		return time.Time{}
	}
	return bars[len(bars)-1].Date
}
