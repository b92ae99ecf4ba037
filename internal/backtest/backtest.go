// Package backtest turns a feature series plus a position series into per-bar
// performance rows, a discrete trade ledger, and summary statistics.
package backtest

import (
	"medallion/internal/domain"
)

// Evaluate computes the per-bar insight rows for a feature series and its
// tradable position series. The first bar has no prior close, so its returns
// are zero and both equity curves start at 1.0.
func Evaluate(rows []domain.FeatureRow, positions []int) []domain.InsightRow {
	out := make([]domain.InsightRow, len(rows))
	assetEquity, strategyEquity := 1.0, 1.0

	for i, r := range rows {
		var assetReturn float64
		if i > 0 && rows[i-1].AdjClose != 0 {
			assetReturn = r.AdjClose/rows[i-1].AdjClose - 1
		}
		strategyReturn := assetReturn * float64(positions[i])

		assetEquity *= 1 + assetReturn
		strategyEquity *= 1 + strategyReturn

		out[i] = domain.InsightRow{
			FeatureRow:     r,
			Position:       positions[i],
			AssetReturn:    assetReturn,
			StrategyReturn: strategyReturn,
			AssetEquity:    assetEquity,
			StrategyEquity: strategyEquity,
		}
	}
	return out
}

// ExtractTrades scans the position series for transitions and groups them
// into discrete round-trips. A 0→1 transition opens a trade at that bar, the
// next 1→0 transition closes it at that bar, and a position still open after
// the final bar is force-closed on the final bar's date. Entries and exits
// pair strictly in sequence order.
func ExtractTrades(rows []domain.InsightRow) []domain.Trade {
	var trades []domain.Trade
	entryIdx := -1

	prev := domain.Flat
	for i, r := range rows {
		switch {
		case prev == domain.Flat && r.Position == domain.Long:
			entryIdx = i
		case prev == domain.Long && r.Position == domain.Flat:
			trades = append(trades, makeTrade(rows, entryIdx, i))
			entryIdx = -1
		}
		prev = r.Position
	}

	if entryIdx >= 0 {
		trades = append(trades, makeTrade(rows, entryIdx, len(rows)-1))
	}
	return trades
}

// makeTrade builds one trade covering rows[entry..exit] inclusive. The return
// is the compounded strategy return over the holding period.
func makeTrade(rows []domain.InsightRow, entry, exit int) domain.Trade {
	compounded := 1.0
	for i := entry; i <= exit; i++ {
		compounded *= 1 + rows[i].StrategyReturn
	}

	entryDate := rows[entry].Date
	exitDate := rows[exit].Date
	return domain.Trade{
		EntryDate:    entryDate,
		ExitDate:     exitDate,
		TradingDays:  exit - entry,
		CalendarDays: int(exitDate.Sub(entryDate).Hours() / 24),
		Return:       compounded - 1,
	}
}

// Summarize aggregates a trade ledger into a TradeReport. All statistics are
// zero when the ledger is empty.
func Summarize(trades []domain.Trade) domain.TradeReport {
	report := domain.TradeReport{Trades: trades}
	if len(trades) == 0 {
		return report
	}

	var wins, losses int
	var winSum, lossSum float64
	report.Best = trades[0].Return
	report.Worst = trades[0].Return

	for _, t := range trades {
		if t.Return > 0 {
			wins++
			winSum += t.Return
		} else {
			losses++
			lossSum += t.Return
		}
		if t.Return > report.Best {
			report.Best = t.Return
		}
		if t.Return < report.Worst {
			report.Worst = t.Return
		}
	}

	report.WinRate = float64(wins) / float64(len(trades))
	if wins > 0 {
		report.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		report.AvgLoss = lossSum / float64(losses)
	}
	return report
}
