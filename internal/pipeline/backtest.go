package pipeline

import (
	"context"
	"fmt"
	"time"

	"medallion/internal/backtest"
	"medallion/internal/domain"
)

// RunBacktest replays the stored feature series through the named strategy,
// persists the per-bar insights artifact (full overwrite), records a run
// summary when a run store is attached, and returns the enriched rows plus
// the trade report. A non-zero start/end restricts the window.
func (p *Pipeline) RunBacktest(ctx context.Context, ticker, strategyName string, start, end time.Time) ([]domain.InsightRow, domain.TradeReport, error) {
	interval := p.cfg.Interval

	if !p.store.HasFeatures(ticker, interval) {
		p.log.Warn("no features data found, run the feature tier first", "ticker", ticker)
		return nil, domain.TradeReport{}, fmt.Errorf("backtest %s/%s: %w", ticker, interval, ErrMissingDependency)
	}

	strat, ok := p.registry.Get(strategyName)
	if !ok {
		return nil, domain.TradeReport{}, fmt.Errorf("unknown strategy %q (have %v)", strategyName, p.registry.List())
	}

	rows, err := p.store.ReadFeatures(ctx, ticker, interval)
	if err != nil {
		return nil, domain.TradeReport{}, err
	}
	rows = filterWindow(rows, start, end)
	if len(rows) == 0 {
		p.log.Warn("no feature rows in the selected window", "ticker", ticker)
		return nil, domain.TradeReport{}, nil
	}

	positions := strat.Positions(rows)
	insights := backtest.Evaluate(rows, positions)
	report := backtest.Summarize(backtest.ExtractTrades(insights))

	if err := p.store.WriteInsights(ctx, ticker, interval, strat.Name(), insights); err != nil {
		return nil, domain.TradeReport{}, err
	}

	if p.runs != nil {
		run := domain.RunSummary{
			Ticker:         ticker,
			Interval:       interval,
			Strategy:       strat.Name(),
			RunAt:          p.now().UTC(),
			Bars:           len(insights),
			Trades:         len(report.Trades),
			WinRate:        report.WinRate,
			AssetReturn:    insights[len(insights)-1].AssetEquity - 1,
			StrategyReturn: insights[len(insights)-1].StrategyEquity - 1,
		}
		if err := p.runs.SaveRun(ctx, &run); err != nil {
			p.log.Warn("recording run summary failed", "ticker", ticker, "err", err)
		}
	}

	p.log.Info("backtest complete",
		"ticker", ticker,
		"strategy", strat.Name(),
		"bars", len(insights),
		"trades", len(report.Trades),
	)
	return insights, report, nil
}

// filterWindow keeps rows with dates inside [start, end]. Zero bounds are
// open.
func filterWindow(rows []domain.FeatureRow, start, end time.Time) []domain.FeatureRow {
	if start.IsZero() && end.IsZero() {
		return rows
	}
	var out []domain.FeatureRow
	for _, r := range rows {
		if !start.IsZero() && r.Date.Before(start) {
			continue
		}
		if !end.IsZero() && r.Date.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}
