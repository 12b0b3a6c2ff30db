package ledger

import (
	"math"
	"testing"
	"time"

	"trend-backtester/internal/types"
)

func trade(num int, pnl, pnlPct float64, entry types.EntryReason, exit types.ExitReason) types.Trade {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	return types.Trade{
		Num:         num,
		EntryTime:   t0,
		ExitTime:    t0.Add(48 * time.Hour),
		PnlDollars:  pnl,
		PnlPct:      pnlPct,
		EntryReason: entry,
		ExitReason:  exit,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStats(t *testing.T) {
	l := New()
	l.Append(trade(1, 1000, 10, types.EntryCross, types.ExitTrail))
	l.Append(trade(2, -400, -4, types.EntryCross, types.ExitFixed))
	l.Append(trade(3, 600, 6, types.EntryReentry, types.ExitSMA))
	l.Append(trade(4, -200, -2, types.EntryCross, types.ExitFixed))

	s := l.Stats(25)

	if s.TotalTrades != 4 || s.Wins != 2 || s.Losses != 2 {
		t.Errorf("expected 4 trades 2/2, got %d %d/%d", s.TotalTrades, s.Wins, s.Losses)
	}
	if !approx(s.WinRatePct, 50) {
		t.Errorf("expected win rate 50, got %f", s.WinRatePct)
	}
	if !approx(s.AvgWinDollars, 800) {
		t.Errorf("expected avg win 800, got %f", s.AvgWinDollars)
	}
	if !approx(s.AvgLossDollars, -300) {
		t.Errorf("expected avg loss -300, got %f", s.AvgLossDollars)
	}
	if !approx(s.AvgWinPct, 8) {
		t.Errorf("expected avg win pct 8, got %f", s.AvgWinPct)
	}
	if !approx(s.GrossPnl, 1000) {
		t.Errorf("expected gross 1000, got %f", s.GrossPnl)
	}
	// Tax hits gains only: 25% of 1000 and of 600. Losses never offset.
	if !approx(s.TotalTax, 400) {
		t.Errorf("expected tax 400, got %f", s.TotalTax)
	}
	if !approx(s.NetPnl, 600) {
		t.Errorf("expected net 600, got %f", s.NetPnl)
	}
	if s.ExitCounts[types.ExitFixed] != 2 || s.ExitCounts[types.ExitTrail] != 1 || s.ExitCounts[types.ExitSMA] != 1 {
		t.Errorf("unexpected exit counts: %v", s.ExitCounts)
	}
	if s.Reentries != 1 {
		t.Errorf("expected 1 re-entry, got %d", s.Reentries)
	}
}

func TestStatsTaxRoundsPerTrade(t *testing.T) {
	l := New()
	// 15% of 10.01 is 1.5015, rounded per trade to 1.50.
	l.Append(trade(1, 10.01, 1, types.EntryCross, types.ExitTrail))
	l.Append(trade(2, 10.01, 1, types.EntryCross, types.ExitTrail))

	s := l.Stats(15)
	if !approx(s.TotalTax, 3.00) {
		t.Errorf("expected per-trade rounded tax 3.00, got %f", s.TotalTax)
	}
}

func TestStatsEmptyLedger(t *testing.T) {
	s := New().Stats(25)
	if s.TotalTrades != 0 || s.WinRatePct != 0 || s.GrossPnl != 0 {
		t.Errorf("expected zeroed stats, got %+v", s)
	}
}

func TestAppendRejectsBackwardsTrade(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for exit before entry")
		}
	}()
	tr := trade(1, 0, 0, types.EntryCross, types.ExitSMA)
	tr.ExitTime = tr.EntryTime.Add(-time.Hour)
	New().Append(tr)
}
