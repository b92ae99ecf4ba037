package pipeline

import (
	"context"

	"medallion/internal/domain"
	"medallion/internal/util"
)

// fetchAttempts bounds the retry loop around the external market-data call.
const fetchAttempts = 3

// UpdateRaw brings the raw OHLCV series for a ticker up to date. The first
// run fetches from the configured default start; later runs fetch only bars
// after the last stored date. The up-to-date check happens before any
// external call, and a provider failure is recovered as zero new bars.
func (p *Pipeline) UpdateRaw(ctx context.Context, ticker string) error {
	interval := p.cfg.Interval
	today := p.today()

	fetchStart := p.cfg.DefaultStart
	if p.store.HasRaw(ticker, interval) {
		existing, err := p.store.ReadRaw(ctx, ticker, interval)
		if err != nil {
			return err
		}
		last := domain.LastDate(existing)
		fetchStart = last.AddDate(0, 0, 1)
		p.log.Info("local data ends, fetching tail",
			"ticker", ticker,
			"lastDate", last.Format("2006-01-02"),
			"fetchStart", fetchStart.Format("2006-01-02"),
		)
	} else {
		p.log.Info("no local data, fetching full history",
			"ticker", ticker,
			"fetchStart", fetchStart.Format("2006-01-02"),
		)
	}

	if fetchStart.After(today) {
		p.log.Info("raw data already up to date", "ticker", ticker)
		return nil
	}

	var bars []domain.Bar
	err := util.Retry(ctx, fetchAttempts, p.retryDelay, func() error {
		var ferr error
		bars, ferr = p.fetcher.Fetch(ctx, ticker, fetchStart, today)
		return ferr
	})
	if err != nil {
		// Recovered: the pipeline continues with the stored series.
		p.log.Warn("fetch failed, treating as zero new bars",
			"ticker", ticker, "provider", p.fetcher.Name(), "err", err)
		return nil
	}

	if len(bars) == 0 {
		p.log.Info("no new trading days to download", "ticker", ticker)
		return nil
	}

	if err := p.store.UpsertRaw(ctx, ticker, interval, bars); err != nil {
		return err
	}
	p.log.Info("raw data upserted", "ticker", ticker, "newBars", len(bars))
	return nil
}
