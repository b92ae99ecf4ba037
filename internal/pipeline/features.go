package pipeline

import (
	"context"
	"fmt"
	"math"

	"medallion/internal/domain"
	"medallion/internal/indicator"
	"medallion/internal/util"
)

// UpdateFeatures computes the RSI feature series for a ticker. The first run
// processes the whole raw series and drops the undefined warmup rows. Later
// runs prime the rolling window from a lookback offset before the last stored
// feature date (calendar days for crypto, US trading days for equities),
// recompute over that slice, and keep only rows strictly after the last
// stored date.
func (p *Pipeline) UpdateFeatures(ctx context.Context, ticker string) error {
	interval := p.cfg.Interval

	if !p.store.HasRaw(ticker, interval) {
		p.log.Warn("raw data not found, run the raw tier first", "ticker", ticker)
		return fmt.Errorf("features %s/%s: %w", ticker, interval, ErrMissingDependency)
	}

	raw, err := p.store.ReadRaw(ctx, ticker, interval)
	if err != nil {
		return err
	}

	var newRows []domain.FeatureRow
	if p.store.HasFeatures(ticker, interval) {
		existing, err := p.store.ReadFeatures(ctx, ticker, interval)
		if err != nil {
			return err
		}
		lastDate := domain.LastDate(featureBars(existing))

		primeDate, class := util.LookbackStart(ticker, lastDate, p.cfg.LookbackPeriod)
		p.log.Info("updating features incrementally",
			"ticker", ticker,
			"assetClass", string(class),
			"primeDate", primeDate.Format("2006-01-02"),
		)

		// Slice from the priming date so the rolling window has history,
		// then discard everything up to and including the last stored date.
		var slice []domain.Bar
		for _, b := range raw {
			if !b.Date.Before(primeDate) {
				slice = append(slice, b)
			}
		}
		for _, row := range computeFeatures(slice, p.cfg.LookbackPeriod, p.cfg.ZeroLoss) {
			if row.Date.After(lastDate) {
				newRows = append(newRows, row)
			}
		}
	} else {
		p.log.Info("no existing features, calculating full history", "ticker", ticker)
		newRows = computeFeatures(raw, p.cfg.LookbackPeriod, p.cfg.ZeroLoss)
	}

	if len(newRows) == 0 {
		p.log.Info("features already up to date", "ticker", ticker)
		return nil
	}

	if err := p.store.UpsertFeatures(ctx, ticker, interval, newRows); err != nil {
		return err
	}
	p.log.Info("features updated", "ticker", ticker, "newRows", len(newRows))
	return nil
}

// computeFeatures runs the indicator over a bar slice and keeps only rows
// with a defined value, so the persisted series never contains warmup rows.
func computeFeatures(bars []domain.Bar, period int, policy indicator.ZeroLossPolicy) []domain.FeatureRow {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.AdjClose
	}
	rsi := indicator.RSI(closes, period, policy)

	var rows []domain.FeatureRow
	for i, b := range bars {
		if math.IsNaN(rsi[i]) {
			continue
		}
		rows = append(rows, domain.FeatureRow{Bar: b, RSI: rsi[i]})
	}
	return rows
}

func featureBars(rows []domain.FeatureRow) []domain.Bar {
	bars := make([]domain.Bar, len(rows))
	for i, r := range rows {
		bars[i] = r.Bar
	}
	return bars
}
