package engine

import "trend-backtester/internal/types"

// fillModel resolves realized fill prices: slippage on every fill, gap-through
// handling on stop exits, and a flat or percentage commission.
type fillModel struct {
	slippage       float64 // fraction, 0.0005 = 0.05%
	commissionMode string  // FLAT or PCT
	commissionVal  float64 // dollars (FLAT) or percent of notional (PCT)
}

func newFillModel(slippagePct float64, commissionMode string, commissionVal float64) fillModel {
	return fillModel{
		slippage:       slippagePct / 100,
		commissionMode: commissionMode,
		commissionVal:  commissionVal,
	}
}

// buyFill applies slippage against the buyer.
func (fm fillModel) buyFill(raw float64) float64 {
	return raw * (1 + fm.slippage)
}

// sellFill applies slippage against the seller.
func (fm fillModel) sellFill(raw float64) float64 {
	return raw * (1 - fm.slippage)
}

// stopExitPrice resolves the raw price of a stop exit. When the entire bar
// traded below the stop level there was no fill opportunity at the level
// itself, so the exit happens at the bar's close.
func (fm fillModel) stopExitPrice(bar types.Bar, stopLevel float64) float64 {
	if bar.High < stopLevel {
		return bar.Close
	}
	return stopLevel
}

// commission for one fill at the given notional value.
func (fm fillModel) commission(notional float64) float64 {
	if fm.commissionMode == "PCT" {
		return notional * fm.commissionVal / 100
	}
	return fm.commissionVal
}
