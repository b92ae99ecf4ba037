package backtest

import (
	"math"
	"testing"
	"time"

	"medallion/internal/domain"
)

func featureRows(closes []float64) []domain.FeatureRow {
	rows := make([]domain.FeatureRow, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		rows[i] = domain.FeatureRow{
			Bar: domain.Bar{
				Ticker:   "TEST",
				Date:     base.AddDate(0, 0, i),
				Close:    c,
				AdjClose: c,
			},
		}
	}
	return rows
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEvaluate(t *testing.T) {
	rows := featureRows([]float64{100, 110, 99})
	positions := []int{0, 1, 1}

	out := Evaluate(rows, positions)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}

	// First bar has no prior close.
	if out[0].AssetReturn != 0 || out[0].StrategyReturn != 0 {
		t.Errorf("first bar returns = %v, %v, want 0, 0", out[0].AssetReturn, out[0].StrategyReturn)
	}
	if out[0].AssetEquity != 1.0 || out[0].StrategyEquity != 1.0 {
		t.Errorf("first bar equity = %v, %v, want 1.0, 1.0", out[0].AssetEquity, out[0].StrategyEquity)
	}

	if !approx(out[1].AssetReturn, 0.10) {
		t.Errorf("out[1].AssetReturn = %v, want 0.10", out[1].AssetReturn)
	}
	if !approx(out[1].StrategyReturn, 0.10) {
		t.Errorf("out[1].StrategyReturn = %v, want 0.10", out[1].StrategyReturn)
	}
	if !approx(out[2].AssetReturn, -0.10) {
		t.Errorf("out[2].AssetReturn = %v, want -0.10", out[2].AssetReturn)
	}

	if !approx(out[2].AssetEquity, 1.10*0.90) {
		t.Errorf("final AssetEquity = %v, want %v", out[2].AssetEquity, 1.10*0.90)
	}
	if !approx(out[2].StrategyEquity, 1.10*0.90) {
		t.Errorf("final StrategyEquity = %v, want %v", out[2].StrategyEquity, 1.10*0.90)
	}
}

func TestEvaluateFlatStrategy(t *testing.T) {
	rows := featureRows([]float64{100, 120, 90, 110})
	positions := []int{0, 0, 0, 0}

	out := Evaluate(rows, positions)
	for i, r := range out {
		if r.StrategyReturn != 0 {
			t.Errorf("out[%d].StrategyReturn = %v, want 0 while flat", i, r.StrategyReturn)
		}
		if !approx(r.StrategyEquity, 1.0) {
			t.Errorf("out[%d].StrategyEquity = %v, want 1.0 while flat", i, r.StrategyEquity)
		}
	}
}

func TestEvaluateZeroPriorClose(t *testing.T) {
	rows := featureRows([]float64{0, 100})
	out := Evaluate(rows, []int{0, 1})
	if out[1].AssetReturn != 0 {
		t.Errorf("AssetReturn after zero close = %v, want 0", out[1].AssetReturn)
	}
}

func insightRows(positions []int, strategyReturns []float64) []domain.InsightRow {
	rows := make([]domain.InsightRow, len(positions))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range positions {
		rows[i] = domain.InsightRow{
			FeatureRow: domain.FeatureRow{
				Bar: domain.Bar{Ticker: "TEST", Date: base.AddDate(0, 0, i)},
			},
			Position:       positions[i],
			StrategyReturn: strategyReturns[i],
		}
	}
	return rows
}

func TestExtractTrades(t *testing.T) {
	// Two round-trips: bars 1..3 and 5..6.
	rows := insightRows(
		[]int{0, 1, 1, 0, 0, 1, 0},
		[]float64{0, 0, 0.10, -0.02, 0, 0, 0.05},
	)

	trades := ExtractTrades(rows)
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}

	first := trades[0]
	if !first.EntryDate.Equal(rows[1].Date) || !first.ExitDate.Equal(rows[3].Date) {
		t.Errorf("first trade spans %s..%s, want %s..%s",
			first.EntryDate.Format("2006-01-02"), first.ExitDate.Format("2006-01-02"),
			rows[1].Date.Format("2006-01-02"), rows[3].Date.Format("2006-01-02"))
	}
	if first.TradingDays != 2 {
		t.Errorf("first trade TradingDays = %d, want 2", first.TradingDays)
	}
	if first.CalendarDays != 2 {
		t.Errorf("first trade CalendarDays = %d, want 2", first.CalendarDays)
	}
	// Compounded over bars 1..3: 1.0 * 1.10 * 0.98 - 1.
	if want := 1.10*0.98 - 1; !approx(first.Return, want) {
		t.Errorf("first trade Return = %v, want %v", first.Return, want)
	}

	second := trades[1]
	if !second.EntryDate.Equal(rows[5].Date) || !second.ExitDate.Equal(rows[6].Date) {
		t.Errorf("second trade spans %s..%s",
			second.EntryDate.Format("2006-01-02"), second.ExitDate.Format("2006-01-02"))
	}
	if !approx(second.Return, 0.05) {
		t.Errorf("second trade Return = %v, want 0.05", second.Return)
	}
}

func TestExtractTradesForcedClose(t *testing.T) {
	// Position still long at the end of the series.
	rows := insightRows(
		[]int{0, 1, 1, 1},
		[]float64{0, 0, 0.01, 0.02},
	)

	trades := ExtractTrades(rows)
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	tr := trades[0]
	if !tr.ExitDate.Equal(rows[3].Date) {
		t.Errorf("forced close exit = %s, want final bar %s",
			tr.ExitDate.Format("2006-01-02"), rows[3].Date.Format("2006-01-02"))
	}
	if want := 1.01*1.02 - 1; !approx(tr.Return, want) {
		t.Errorf("Return = %v, want %v", tr.Return, want)
	}
}

func TestExtractTradesNone(t *testing.T) {
	rows := insightRows([]int{0, 0, 0}, []float64{0, 0, 0})
	if trades := ExtractTrades(rows); len(trades) != 0 {
		t.Errorf("got %d trades, want 0", len(trades))
	}
	if trades := ExtractTrades(nil); len(trades) != 0 {
		t.Errorf("got %d trades from nil rows, want 0", len(trades))
	}
}

func TestSummarize(t *testing.T) {
	trades := []domain.Trade{
		{Return: 0.10},
		{Return: -0.04},
		{Return: 0.06},
		{Return: -0.02},
	}

	report := Summarize(trades)
	if !approx(report.WinRate, 0.5) {
		t.Errorf("WinRate = %v, want 0.5", report.WinRate)
	}
	if !approx(report.AvgWin, 0.08) {
		t.Errorf("AvgWin = %v, want 0.08", report.AvgWin)
	}
	if !approx(report.AvgLoss, -0.03) {
		t.Errorf("AvgLoss = %v, want -0.03", report.AvgLoss)
	}
	if !approx(report.Best, 0.10) {
		t.Errorf("Best = %v, want 0.10", report.Best)
	}
	if !approx(report.Worst, -0.04) {
		t.Errorf("Worst = %v, want -0.04", report.Worst)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	report := Summarize(nil)
	if report.WinRate != 0 || report.AvgWin != 0 || report.AvgLoss != 0 {
		t.Errorf("empty ledger should produce zero stats: %+v", report)
	}
	if len(report.Trades) != 0 {
		t.Errorf("Trades = %v, want empty", report.Trades)
	}
}

func TestSummarizeZeroReturnIsLoss(t *testing.T) {
	// Breakeven trades count against the win rate.
	report := Summarize([]domain.Trade{{Return: 0}, {Return: 0.05}})
	if !approx(report.WinRate, 0.5) {
		t.Errorf("WinRate = %v, want 0.5", report.WinRate)
	}
}
