package engine

import (
	"testing"

	"trend-backtester/internal/types"
)

func TestFillSlippageDirection(t *testing.T) {
	fm := newFillModel(0.05, "FLAT", 0)

	buy := fm.buyFill(100)
	if buy != 100.05 {
		t.Errorf("expected buy fill 100.05, got %f", buy)
	}
	sell := fm.sellFill(100)
	if sell != 99.95 {
		t.Errorf("expected sell fill 99.95, got %f", sell)
	}
}

func TestStopExitPriceGapThrough(t *testing.T) {
	fm := newFillModel(0, "FLAT", 0)

	// Bar trades through the level: fill at the level.
	b := types.Bar{Open: 92, High: 95, Low: 88, Close: 91}
	if got := fm.stopExitPrice(b, 90); got != 90 {
		t.Errorf("expected fill at stop 90, got %f", got)
	}

	// Whole bar below the level: no fill opportunity there, use the close.
	b = types.Bar{Open: 40, High: 41, Low: 38, Close: 39}
	if got := fm.stopExitPrice(b, 45); got != 39 {
		t.Errorf("expected gap-through fill at close 39, got %f", got)
	}
}

func TestCommissionModes(t *testing.T) {
	flat := newFillModel(0, "FLAT", 5)
	if got := flat.commission(10000); got != 5 {
		t.Errorf("expected flat commission 5, got %f", got)
	}

	pct := newFillModel(0, "PCT", 0.1)
	if got := pct.commission(10000); got != 10 {
		t.Errorf("expected pct commission 10, got %f", got)
	}

	free := newFillModel(0, "FLAT", 0)
	if got := free.commission(10000); got != 0 {
		t.Errorf("expected zero commission, got %f", got)
	}
}
