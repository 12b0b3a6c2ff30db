package engine

import (
	"testing"

	"trend-backtester/internal/types"
)

func TestActiveStopTakesHigherLevel(t *testing.T) {
	sc := newStopCalculator(0.10, 0.20)

	fixed := sc.fixedStop(100)
	if fixed != 90 {
		t.Errorf("expected fixed stop 90, got %f", fixed)
	}

	// Right after entry the trailing level sits below the fixed one.
	trailing := sc.trailingStop(100)
	if trailing != 80 {
		t.Errorf("expected trailing stop 80, got %f", trailing)
	}
	level, reason := sc.activeStop(fixed, trailing)
	if level != 90 || reason != types.ExitFixed {
		t.Errorf("expected fixed stop 90 to be active, got %f/%s", level, reason)
	}

	// After a rally the trailing level overtakes and locks in profit.
	trailing = sc.trailingStop(150)
	level, reason = sc.activeStop(fixed, trailing)
	if level != 120 || reason != types.ExitTrail {
		t.Errorf("expected trailing stop 120 to be active, got %f/%s", level, reason)
	}
}

func TestActiveStopTieGoesToFixed(t *testing.T) {
	sc := newStopCalculator(0.10, 0.10)
	level, reason := sc.activeStop(sc.fixedStop(100), sc.trailingStop(100))
	if level != 90 || reason != types.ExitFixed {
		t.Errorf("expected tie to resolve FIXED at 90, got %f/%s", level, reason)
	}
}

func TestPositionHighestNeverDecreases(t *testing.T) {
	p := &position{highest: 100}
	p.observe(95)
	if p.highest != 100 {
		t.Errorf("expected highest to stay 100, got %f", p.highest)
	}
	p.observe(105)
	if p.highest != 105 {
		t.Errorf("expected highest 105, got %f", p.highest)
	}
	p.observe(104)
	if p.highest != 105 {
		t.Errorf("expected highest to stay 105, got %f", p.highest)
	}
}
