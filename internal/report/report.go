package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"trend-backtester/internal/ledger"
	"trend-backtester/internal/types"
)

// Params echoes the run configuration in the report header.
type Params struct {
	SignalSymbol    string
	TradeSymbol     string
	SMAPeriod       int
	FixedStopPct    float64
	TrailingStopPct float64
	SlippagePct     float64
	TaxRatePct      float64
	StartingCapital float64
}

// Write renders the full text report for one run.
func Write(w io.Writer, result *types.RunResult, p Params) error {
	l := ledger.New()
	for _, t := range result.Trades {
		l.Append(t)
	}
	stats := l.Stats(p.TaxRatePct)

	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 96))
	fmt.Fprintf(w, "TREND BACKTEST  run %s\n", result.RunID)
	fmt.Fprintf(w, "signal=%s traded=%s sma=%d fixed_stop=%.1f%% trail_stop=%.1f%% slippage=%.3f%%\n",
		p.SignalSymbol, p.TradeSymbol, p.SMAPeriod, p.FixedStopPct, p.TrailingStopPct, p.SlippagePct)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 96))

	fmt.Fprintf(w, "%-4s %-17s %-17s %10s %10s %10s %12s %8s %6s %-6s %-5s\n",
		"#", "ENTRY", "EXIT", "ENTRY PX", "EXIT PX", "SHARES", "PNL $", "PNL %", "DAYS", "IN", "OUT")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, t := range result.Trades {
		fmt.Fprintf(w, "%-4d %-17s %-17s %10.2f %10.2f %10.3f %12.2f %7.2f%% %6d %-6s %-5s\n",
			t.Num,
			t.EntryTime.Format("2006-01-02 15:04"),
			t.ExitTime.Format("2006-01-02 15:04"),
			t.EntryPrice, t.ExitPrice, t.Shares,
			t.PnlDollars, t.PnlPct, t.HoldingDays,
			t.EntryReason, t.ExitReason)
	}

	fmt.Fprintf(w, "\nSUMMARY\n%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Trades:           %d (%d wins, %d losses)\n", stats.TotalTrades, stats.Wins, stats.Losses)
	fmt.Fprintf(w, "Win rate:         %.1f%%\n", stats.WinRatePct)
	fmt.Fprintf(w, "Avg win:          $%.2f (%.2f%%)\n", stats.AvgWinDollars, stats.AvgWinPct)
	fmt.Fprintf(w, "Avg loss:         $%.2f (%.2f%%)\n", stats.AvgLossDollars, stats.AvgLossPct)
	fmt.Fprintf(w, "Gross PnL:        $%.2f\n", stats.GrossPnl)
	fmt.Fprintf(w, "Tax (%.1f%%):       $%.2f\n", p.TaxRatePct, stats.TotalTax)
	fmt.Fprintf(w, "Net PnL:          $%.2f\n", stats.NetPnl)
	fmt.Fprintf(w, "Slippage paid:    $%.2f\n", result.TotalSlippage)
	fmt.Fprintf(w, "Commission paid:  $%.2f\n", result.TotalCommission)
	fmt.Fprintf(w, "Starting capital: $%.2f\n", p.StartingCapital)
	fmt.Fprintf(w, "Final capital:    $%.2f (%.2f%%)\n", result.FinalCapital,
		(result.FinalCapital/p.StartingCapital-1)*100)
	fmt.Fprintf(w, "Re-entries:       %d\n", stats.Reentries)

	fmt.Fprintf(w, "\nEXIT REASONS\n%s\n", strings.Repeat("-", 40))
	for _, reason := range []types.ExitReason{types.ExitFixed, types.ExitTrail, types.ExitSMA, types.ExitEnd} {
		if n := stats.ExitCounts[reason]; n > 0 {
			fmt.Fprintf(w, "%-6s %d\n", reason, n)
		}
	}

	writeYearly(w, result.Trades, p.TaxRatePct)
	return nil
}

// writeYearly breaks PnL down by exit year, taxing each year's gains
// independently.
func writeYearly(w io.Writer, trades []types.Trade, taxRatePct float64) {
	if len(trades) == 0 {
		return
	}
	rate := decimal.NewFromFloat(taxRatePct).Div(decimal.NewFromInt(100))

	type yearAgg struct {
		trades int
		gross  decimal.Decimal
		tax    decimal.Decimal
	}
	byYear := make(map[int]*yearAgg)
	for _, t := range trades {
		y := t.ExitTime.Year()
		agg := byYear[y]
		if agg == nil {
			agg = &yearAgg{gross: decimal.Zero, tax: decimal.Zero}
			byYear[y] = agg
		}
		pnl := decimal.NewFromFloat(t.PnlDollars).Round(2)
		agg.trades++
		agg.gross = agg.gross.Add(pnl)
		if t.PnlDollars > 0 {
			agg.tax = agg.tax.Add(pnl.Mul(rate).Round(2))
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	fmt.Fprintf(w, "\nYEARLY\n%s\n", strings.Repeat("-", 56))
	fmt.Fprintf(w, "%-6s %8s %14s %12s %14s\n", "YEAR", "TRADES", "GROSS $", "TAX $", "NET $")
	for _, y := range years {
		agg := byYear[y]
		net := agg.gross.Sub(agg.tax)
		fmt.Fprintf(w, "%-6d %8d %14s %12s %14s\n",
			y, agg.trades, agg.gross.StringFixed(2), agg.tax.StringFixed(2), net.StringFixed(2))
	}
}

// WriteFile renders the report into dir as <runID>.txt.
func WriteFile(dir string, result *types.RunResult, p Params) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, result.RunID+".txt")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := Write(f, result, p); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTradesJSON writes the trade list into dir as <runID>_trades.json, the
// machine-readable counterpart of the text report.
func WriteTradesJSON(dir string, result *types.RunResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, result.RunID+"_trades.json")
	b, err := json.MarshalIndent(result.Trades, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type equityRow struct {
	Day    string  `csv:"day"`
	Equity float64 `csv:"equity"`
}

// WriteEquityCSV writes the per-day equity curve into dir as <runID>_equity.csv.
func WriteEquityCSV(dir string, result *types.RunResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, result.RunID+"_equity.csv")

	rows := make([]equityRow, 0, len(result.Equity))
	for _, ep := range result.Equity {
		rows = append(rows, equityRow{Day: string(ep.Day), Equity: ep.Equity})
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return "", err
	}
	return path, nil
}
