package engine

import "trend-backtester/internal/types"

// stopCalculator computes the hybrid stop levels. Percentages are fractions
// (0.10 = 10%).
type stopCalculator struct {
	fixedPct float64
	trailPct float64
}

func newStopCalculator(fixedPct, trailPct float64) stopCalculator {
	return stopCalculator{fixedPct: fixedPct, trailPct: trailPct}
}

// fixedStop is anchored to the entry fill and never moves.
func (sc stopCalculator) fixedStop(entryPrice float64) float64 {
	return entryPrice * (1 - sc.fixedPct)
}

// trailingStop follows the highest price seen since entry.
func (sc stopCalculator) trailingStop(highestPrice float64) float64 {
	return highestPrice * (1 - sc.trailPct)
}

// activeStop is the higher of the two levels: the fixed stop caps the initial
// loss, the trailing stop locks in accrued profit, and whichever sits higher
// protects more capital. The reason tags which leg owns the level; ties go to
// the fixed stop.
func (sc stopCalculator) activeStop(fixed, trailing float64) (float64, types.ExitReason) {
	if fixed >= trailing {
		return fixed, types.ExitFixed
	}
	return trailing, types.ExitTrail
}
