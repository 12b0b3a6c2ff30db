package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"trend-backtester/internal/types"
)

// Ledger is the append-only record of completed round trips, in exit order.
type Ledger struct {
	trades []types.Trade
}

func New() *Ledger {
	return &Ledger{}
}

// Append records one completed trade. A trade whose exit precedes its entry
// means the replay clock went backwards; abort loudly instead of masking it.
func (l *Ledger) Append(t types.Trade) {
	if t.ExitTime.Before(t.EntryTime) {
		panic(fmt.Sprintf("invariant breach: trade %d exits at %s before entry at %s",
			t.Num, t.ExitTime, t.EntryTime))
	}
	l.trades = append(l.trades, t)
}

func (l *Ledger) Trades() []types.Trade {
	return l.trades
}

func (l *Ledger) Len() int {
	return len(l.trades)
}

// Stats are the aggregate figures over a finished ledger. Dollar figures are
// rounded to cents.
type Stats struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRatePct  float64

	AvgWinDollars  float64
	AvgLossDollars float64
	AvgWinPct      float64
	AvgLossPct     float64

	GrossPnl   float64
	TotalTax   float64
	NetPnl     float64
	ExitCounts map[types.ExitReason]int
	Reentries  int
}

// Stats aggregates the ledger. Tax is assessed per trade on gains only,
// rounded to cents per trade; losing trades owe nothing and never offset
// gains.
func (l *Ledger) Stats(taxRatePct float64) Stats {
	s := Stats{
		TotalTrades: len(l.trades),
		ExitCounts:  make(map[types.ExitReason]int),
	}

	rate := decimal.NewFromFloat(taxRatePct).Div(decimal.NewFromInt(100))
	gross := decimal.Zero
	tax := decimal.Zero
	var winSum, lossSum, winPctSum, lossPctSum float64

	for _, t := range l.trades {
		pnl := decimal.NewFromFloat(t.PnlDollars).Round(2)
		gross = gross.Add(pnl)

		if t.PnlDollars > 0 {
			s.Wins++
			winSum += t.PnlDollars
			winPctSum += t.PnlPct
			tax = tax.Add(pnl.Mul(rate).Round(2))
		} else {
			s.Losses++
			lossSum += t.PnlDollars
			lossPctSum += t.PnlPct
		}

		s.ExitCounts[t.ExitReason]++
		if t.EntryReason == types.EntryReentry {
			s.Reentries++
		}
	}

	if s.TotalTrades > 0 {
		s.WinRatePct = float64(s.Wins) / float64(s.TotalTrades) * 100
	}
	if s.Wins > 0 {
		s.AvgWinDollars = winSum / float64(s.Wins)
		s.AvgWinPct = winPctSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLossDollars = lossSum / float64(s.Losses)
		s.AvgLossPct = lossPctSum / float64(s.Losses)
	}

	s.GrossPnl, _ = gross.Float64()
	s.TotalTax, _ = tax.Float64()
	s.NetPnl, _ = gross.Sub(tax).Float64()

	return s
}
