package types

import "time"

// Day is a trading-day key in venue-local time, formatted "2006-01-02".
// ISO formatting makes lexicographic comparison equal to chronological order.
type Day string

func DayOf(t time.Time) Day {
	return Day(t.Format("2006-01-02"))
}

func (d Day) Before(o Day) bool { return d < o }

// Bar is one immutable, split-adjusted OHLCV bar in venue-local time.
type Bar struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (b Bar) Day() Day { return DayOf(b.Ts) }

type EntryReason string

const (
	EntryCross   EntryReason = "CROSS"
	EntryReentry EntryReason = "REENT"
)

type ExitReason string

const (
	ExitFixed ExitReason = "FIXED"
	ExitTrail ExitReason = "TRAIL"
	ExitSMA   ExitReason = "SMA"
	// ExitEnd closes a position still open when the replay runs out of bars.
	ExitEnd ExitReason = "END"
)

// Trade is one closed round trip. Prices are post-slippage fills; the raw
// fields keep the pre-slippage price for audit.
type Trade struct {
	Num                int         `json:"num"`
	EntryTime          time.Time   `json:"entry_time"`
	ExitTime           time.Time   `json:"exit_time"`
	EntryPrice         float64     `json:"entry_price"`
	ExitPrice          float64     `json:"exit_price"`
	RawEntryPrice      float64     `json:"raw_entry_price"`
	RawExitPrice       float64     `json:"raw_exit_price"`
	Shares             float64     `json:"shares"`
	PnlDollars         float64     `json:"pnl_dollars"`
	PnlPct             float64     `json:"pnl_pct"`
	HoldingDays        int         `json:"holding_days"`
	EntryReason        EntryReason `json:"entry_reason"`
	ExitReason         ExitReason  `json:"exit_reason"`
	FixedStopAtExit    float64     `json:"fixed_stop_at_exit"`
	TrailingStopAtExit float64     `json:"trailing_stop_at_exit"`
	SlippageCost       float64     `json:"slippage_cost"`
	Commission         float64     `json:"commission"`
	CapitalAtEntry     float64     `json:"capital_at_entry"`
}

func (t Trade) EntryDay() Day { return DayOf(t.EntryTime) }
func (t Trade) ExitDay() Day  { return DayOf(t.ExitTime) }

// EquityPoint marks portfolio value at one day's close.
type EquityPoint struct {
	Day    Day     `json:"day"`
	Equity float64 `json:"equity"`
}

// RunResult is the full output of one backtest replay.
type RunResult struct {
	RunID           string        `json:"run_id"`
	Trades          []Trade       `json:"trades"`
	Equity          []EquityPoint `json:"equity"`
	FinalCapital    float64       `json:"final_capital"`
	TotalSlippage   float64       `json:"total_slippage"`
	TotalCommission float64       `json:"total_commission"`
}
