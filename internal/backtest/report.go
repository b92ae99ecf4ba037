package backtest

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"medallion/internal/domain"
)

// RenderReport writes the human-readable backtest output: the overall
// performance summary, the trade ledger table, and the trade statistics.
func RenderReport(w io.Writer, ticker string, rows []domain.InsightRow, report domain.TradeReport) {
	fmt.Fprintf(w, "\n=== %s BACKTEST RESULTS ===\n", ticker)
	if len(rows) == 0 {
		fmt.Fprintln(w, "no bars in the selected window")
		return
	}

	last := rows[len(rows)-1]
	assetReturn := last.AssetEquity - 1
	strategyReturn := last.StrategyEquity - 1

	fmt.Fprintf(w, "Total Trading Days: %d\n", len(rows))
	fmt.Fprintf(w, "Buy & Hold Return:  %.2f%%\n", assetReturn*100)
	fmt.Fprintf(w, "Strategy Return:    %.2f%%\n", strategyReturn*100)
	fmt.Fprintf(w, "Performance Delta:  %.2f%%\n", (strategyReturn-assetReturn)*100)

	if len(report.Trades) == 0 {
		fmt.Fprintln(w, "\n[!] No trades executed during this period.")
		return
	}

	fmt.Fprintln(w, "\n--- TRADE LEDGER ---")
	renderLedger(w, report.Trades)

	fmt.Fprintln(w, "\n=== TRADE LOG SUMMARY ===")
	fmt.Fprintf(w, "Total Trades Taken: %d\n", len(report.Trades))
	fmt.Fprintf(w, "Win Rate:           %.2f%%\n", report.WinRate*100)
	fmt.Fprintf(w, "Average Win:        %.2f%%\n", report.AvgWin*100)
	fmt.Fprintf(w, "Average Loss:       %.2f%%\n", report.AvgLoss*100)
	fmt.Fprintf(w, "Best Trade:         %.2f%%\n", report.Best*100)
	fmt.Fprintf(w, "Worst Trade:        %.2f%%\n", report.Worst*100)
}

func renderLedger(w io.Writer, trades []domain.Trade) {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Entry", "Exit", "Bars", "Cal Days", "Return")

	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			t.EntryDate.Format("2006-01-02"),
			t.ExitDate.Format("2006-01-02"),
			fmt.Sprintf("%d", t.TradingDays),
			fmt.Sprintf("%d", t.CalendarDays),
			fmt.Sprintf("%.2f%%", t.Return*100),
		)
	}

	table.Render()
}
