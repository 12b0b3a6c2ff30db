package engine

import (
	"context"
	"time"

	"trend-backtester/internal/logger"
	"trend-backtester/internal/marketdata"
	"trend-backtester/internal/types"
)

// stepBar evaluates one intraday bar in the fixed order: deferred EOD exit,
// stop exit, indicator-cross exit, entry. Stop checks come before indicator
// checks (capital protection first); exits on the day's last bar are
// suppressed so they cannot double-handle with the EOD reconciliation that
// runs after it.
func (r *run) stepBar(ctx context.Context, day types.Day, ab marketdata.AlignedBar, smaCausal float64, first, last bool) {
	rs := r.rs

	// 1. A reversal scheduled at yesterday's close executes at the first bar
	// of the new session. Exempt from the T+1 cooldown for the rest of today.
	if rs.state == statePendingEODExit && first {
		r.exit(ctx, ab, ab.Traded.Close, types.ExitSMA, true)
		rs.memory.reset()
	}

	// Second half of the re-entry confirmation: the opening bar after the
	// stop-out day, checked against the causal value only.
	if first && rs.memory.armed && !rs.memory.openConfirmed && day != rs.memory.stopDay {
		if rs.memory.closeConfirmed && ab.Signal.Open > smaCausal {
			rs.memory.openConfirmed = true
		} else {
			rs.memory.reset()
		}
	}

	above := ab.Signal.Close > smaCausal
	prevAbove := rs.hasPrevBar && rs.prevSignalClose > smaCausal

	// 2. Stop exit.
	if rs.state == stateLong {
		rs.pos.observe(ab.Traded.High)
		fixed := r.e.stops.fixedStop(rs.pos.entryPrice)
		trailing := r.e.stops.trailingStop(rs.pos.highest)
		active, reason := r.e.stops.activeStop(fixed, trailing)
		if !last && ab.Traded.Low <= active {
			raw := r.e.fills.stopExitPrice(ab.Traded, active)
			r.exit(ctx, ab, raw, reason, false)
			rs.memory = signalMemory{armed: true, stopDay: day}
		}
	}

	// 3. Indicator-cross exit.
	if rs.state == stateLong && !last && prevAbove && !above {
		r.exit(ctx, ab, ab.Traded.Close, types.ExitSMA, false)
		rs.memory.reset()
	}

	// 4. Entry. Re-entry permission outranks a fresh crossover on the same bar.
	if rs.state == stateFlat && !rs.cooldownBlocked(day) {
		if rs.memory.confirmed() {
			r.enter(ctx, ab, types.EntryReentry)
			rs.memory.reset()
		} else if rs.hasPrevBar && !prevAbove && above {
			r.enter(ctx, ab, types.EntryCross)
		}
	}

	rs.prevSignalClose = ab.Signal.Close
	rs.hasPrevBar = true
}

// reconcileEOD runs once per trading day after its final bar, comparing the
// daily close to the indicator value that includes today. This is the only
// reader of the non-causal accessor, and it only schedules next-open action.
func (r *run) reconcileEOD(ctx context.Context, day types.Day) error {
	rs := r.rs

	dailyClose, ok := r.e.sma.CloseOn(day)
	if !ok {
		return &types.DataGapError{Day: day, Detail: "no daily close for reconciliation"}
	}
	smaEOD, err := r.e.sma.ValueOnDay(day)
	if err != nil {
		return err
	}
	aboveEOD := dailyClose > smaEOD

	if rs.state == stateLong && !aboveEOD {
		rs.state = statePendingEODExit
		logger.Debug(ctx, "EOD reversal scheduled",
			"day", string(day),
			"daily_close", dailyClose,
			"sma_eod", smaEOD,
		)
	}

	// First half of the re-entry confirmation, on the stop-out day itself.
	if rs.memory.armed && day == rs.memory.stopDay {
		if aboveEOD {
			rs.memory.closeConfirmed = true
		} else {
			rs.memory.reset()
		}
	}

	return nil
}

// enter opens a position at the bar's close, slippage against the buyer,
// full capital after commission.
func (r *run) enter(ctx context.Context, ab marketdata.AlignedBar, reason types.EntryReason) {
	rs := r.rs

	raw := ab.Traded.Close
	fill := r.e.fills.buyFill(raw)
	comm := r.e.fills.commission(rs.capital)
	invested := rs.capital - comm
	shares := invested / fill
	slip := shares * (fill - raw)

	rs.open(&position{
		entryTime:      ab.Ts,
		entryReason:    reason,
		entryPrice:     fill,
		rawEntryPrice:  raw,
		shares:         shares,
		capitalAtEntry: invested,
		highest:        ab.Traded.High,
		slippageCost:   slip,
		commission:     comm,
	})
	rs.capital = invested

	r.totalSlippage += slip
	r.totalCommission += comm

	logger.Fill(ctx, r.e.p.TradeSymbol, "BUY", shares, fill, string(reason),
		"ts", ab.Ts.Format(time.RFC3339),
		"raw_price", raw,
	)
}

// exit closes the open position at the given raw price, slippage against the
// seller, and appends the completed round trip to the ledger.
func (r *run) exit(ctx context.Context, ab marketdata.AlignedBar, raw float64, reason types.ExitReason, eodForced bool) {
	rs := r.rs
	p := rs.close()

	fill := r.e.fills.sellFill(raw)
	slip := p.shares * (raw - fill)
	notional := p.shares * fill
	comm := r.e.fills.commission(notional)
	pnl := p.shares*(fill-p.entryPrice) - comm
	rs.capital = notional - comm

	fixed := r.e.stops.fixedStop(p.entryPrice)
	trailing := r.e.stops.trailingStop(p.highest)

	r.ledger.Append(types.Trade{
		Num:                r.ledger.Len() + 1,
		EntryTime:          p.entryTime,
		ExitTime:           ab.Ts,
		EntryPrice:         p.entryPrice,
		ExitPrice:          fill,
		RawEntryPrice:      p.rawEntryPrice,
		RawExitPrice:       raw,
		Shares:             p.shares,
		PnlDollars:         pnl,
		PnlPct:             (fill/p.entryPrice - 1) * 100,
		HoldingDays:        holdingDays(p.entryTime, ab.Ts),
		EntryReason:        p.entryReason,
		ExitReason:         reason,
		FixedStopAtExit:    fixed,
		TrailingStopAtExit: trailing,
		SlippageCost:       p.slippageCost + slip,
		Commission:         p.commission + comm,
		CapitalAtEntry:     p.capitalAtEntry,
	})

	rs.lastExitDay = types.DayOf(ab.Ts)
	rs.lastExitWasEOD = eodForced

	r.totalSlippage += slip
	r.totalCommission += comm

	logger.Fill(ctx, r.e.p.TradeSymbol, "SELL", p.shares, fill, string(reason),
		"ts", ab.Ts.Format(time.RFC3339),
		"raw_price", raw,
		"pnl", pnl,
		"eod_forced", eodForced,
	)
}

// liquidateEndOfData closes a position still open when the bars run out, at
// the final bar's close. No commission; there is no real order here, the
// round trip just has to be accounted for.
func (r *run) liquidateEndOfData(ctx context.Context, final marketdata.AlignedBar) {
	rs := r.rs
	p := rs.close()

	raw := final.Traded.Close
	fill := r.e.fills.sellFill(raw)
	slip := p.shares * (raw - fill)
	pnl := p.shares * (fill - p.entryPrice)
	rs.capital = p.shares * fill

	fixed := r.e.stops.fixedStop(p.entryPrice)
	trailing := r.e.stops.trailingStop(p.highest)

	r.ledger.Append(types.Trade{
		Num:                r.ledger.Len() + 1,
		EntryTime:          p.entryTime,
		ExitTime:           final.Ts,
		EntryPrice:         p.entryPrice,
		ExitPrice:          fill,
		RawEntryPrice:      p.rawEntryPrice,
		RawExitPrice:       raw,
		Shares:             p.shares,
		PnlDollars:         pnl,
		PnlPct:             (fill/p.entryPrice - 1) * 100,
		HoldingDays:        holdingDays(p.entryTime, final.Ts),
		EntryReason:        p.entryReason,
		ExitReason:         types.ExitEnd,
		FixedStopAtExit:    fixed,
		TrailingStopAtExit: trailing,
		SlippageCost:       p.slippageCost + slip,
		Commission:         p.commission,
		CapitalAtEntry:     p.capitalAtEntry,
	})

	r.totalSlippage += slip

	logger.Fill(ctx, r.e.p.TradeSymbol, "SELL", p.shares, fill, string(types.ExitEnd),
		"ts", final.Ts.Format(time.RFC3339),
		"raw_price", raw,
		"pnl", pnl,
	)
}

// holdingDays is the civil-date difference between entry and exit.
func holdingDays(entry, exit time.Time) int {
	e0 := time.Date(entry.Year(), entry.Month(), entry.Day(), 0, 0, 0, 0, time.UTC)
	x0 := time.Date(exit.Year(), exit.Month(), exit.Day(), 0, 0, 0, 0, time.UTC)
	return int(x0.Sub(e0) / (24 * time.Hour))
}
