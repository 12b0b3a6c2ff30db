package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"trend-backtester/internal/indicator"
	"trend-backtester/internal/interfaces"
	"trend-backtester/internal/ledger"
	"trend-backtester/internal/logger"
	"trend-backtester/internal/marketdata"
	"trend-backtester/internal/types"
)

// Params are the knobs of one run, immutable for its duration. Percentages
// are human-scale (10 = 10%).
type Params struct {
	SignalSymbol    string
	TradeSymbol     string
	SMAPeriod       int
	FixedStopPct    float64
	TrailingStopPct float64
	SlippagePct     float64
	CommissionMode  string
	CommissionValue float64
	StartingCapital float64
}

// Engine replays a pre-loaded bar stream against the daily indicator and
// produces a trade ledger plus a per-day equity curve. Deterministic and
// synchronous: identical inputs reproduce identical trade sequences.
type Engine struct {
	p      Params
	sma    *indicator.Series
	stream *marketdata.Stream
	stops  stopCalculator
	fills  fillModel
}

var _ interfaces.Runner = (*Engine)(nil)

func New(p Params, sma *indicator.Series, stream *marketdata.Stream) *Engine {
	return &Engine{
		p:      p,
		sma:    sma,
		stream: stream,
		stops:  newStopCalculator(p.FixedStopPct/100, p.TrailingStopPct/100),
		fills:  newFillModel(p.SlippagePct, p.CommissionMode, p.CommissionValue),
	}
}

// run is the mutable context of one replay. Engine itself stays read-only so
// independent runs can share it; each run owns its state.
type run struct {
	e  *Engine
	rs *runState

	ledger          *ledger.Ledger
	equity          []types.EquityPoint
	totalSlippage   float64
	totalCommission float64
}

// Run replays the whole stream. Fails fast on insufficient indicator history
// or a data gap; both corrupt causal lookups if ignored.
func (e *Engine) Run(ctx context.Context) (*types.RunResult, error) {
	days := e.stream.Days()
	if len(days) == 0 {
		return nil, fmt.Errorf("no intraday bars in run range")
	}
	if _, err := e.sma.ValueAsOf(days[0]); err != nil {
		return nil, err
	}

	r := &run{
		e:      e,
		rs:     newRunState(e.p.StartingCapital),
		ledger: ledger.New(),
		equity: make([]types.EquityPoint, 0, len(days)),
	}

	for _, day := range days {
		bars := e.stream.Bars(day)
		smaCausal, err := e.sma.ValueAsOf(day)
		if err != nil {
			return nil, err
		}

		for i, ab := range bars {
			r.stepBar(ctx, day, ab, smaCausal, i == 0, i == len(bars)-1)
		}

		if err := r.reconcileEOD(ctx, day); err != nil {
			return nil, err
		}

		r.markEquity(day, bars[len(bars)-1])
	}

	if r.rs.pos != nil {
		final, _ := e.stream.LastBar()
		r.liquidateEndOfData(ctx, final)
	}

	logger.Info(ctx, "Replay finished",
		"days", len(days),
		"bars", e.stream.NumBars(),
		"trades", r.ledger.Len(),
		"final_capital", r.rs.capital,
	)

	return &types.RunResult{
		RunID:           uuid.NewString(),
		Trades:          r.ledger.Trades(),
		Equity:          r.equity,
		FinalCapital:    r.rs.capital,
		TotalSlippage:   r.totalSlippage,
		TotalCommission: r.totalCommission,
	}, nil
}

// markEquity records the day's closing portfolio value: cash while flat,
// mark-to-market at the day's last traded close while holding.
func (r *run) markEquity(day types.Day, lastBar marketdata.AlignedBar) {
	eq := r.rs.capital
	if r.rs.pos != nil {
		eq = r.rs.pos.shares * lastBar.Traded.Close
	}
	r.equity = append(r.equity, types.EquityPoint{Day: day, Equity: eq})
}
