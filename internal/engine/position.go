package engine

import (
	"fmt"
	"time"

	"trend-backtester/internal/types"
)

// state of the signal machine.
type state int

const (
	stateFlat state = iota
	stateLong
	statePendingEODExit
)

func (s state) String() string {
	switch s {
	case stateFlat:
		return "FLAT"
	case stateLong:
		return "LONG"
	case statePendingEODExit:
		return "PENDING_EOD_EXIT"
	}
	return "UNKNOWN"
}

// position is the single open position. Created on an entry fill, mutated
// every bar, destroyed on the exit fill.
type position struct {
	entryTime      time.Time
	entryReason    types.EntryReason
	entryPrice     float64 // post-slippage fill
	rawEntryPrice  float64
	shares         float64
	capitalAtEntry float64
	highest        float64 // highest traded-asset price since entry
	slippageCost   float64
	commission     float64
}

// observe folds one bar's high into the running maximum. The maximum is
// non-decreasing for the life of the position.
func (p *position) observe(high float64) {
	if high > p.highest {
		p.highest = high
	}
}

// signalMemory retains re-entry permission after a stop-out. Armed by a stop
// exit; closeConfirmed at that day's close, openConfirmed at the next day's
// opening bar, in that order. A failed confirmation clears it; so does an
// indicator-cross exit or a successful re-entry.
type signalMemory struct {
	armed          bool
	closeConfirmed bool
	openConfirmed  bool
	stopDay        types.Day
}

func (m *signalMemory) reset() { *m = signalMemory{} }

func (m *signalMemory) confirmed() bool {
	return m.armed && m.closeConfirmed && m.openConfirmed
}

// runState is the explicit run context threaded through every step: the
// machine state, the open position, signal memory, the T+1 cooldown marker
// and the cash balance. One value per run, never shared.
type runState struct {
	state  state
	pos    *position
	memory signalMemory

	lastExitDay    types.Day
	lastExitWasEOD bool

	capital float64

	prevSignalClose float64
	hasPrevBar      bool
}

func newRunState(startingCapital float64) *runState {
	return &runState{state: stateFlat, capital: startingCapital}
}

// cooldownBlocked reports whether the T+1 rule forbids an entry on day.
// EOD-forced exits already happened at the new session's open and are exempt.
func (rs *runState) cooldownBlocked(day types.Day) bool {
	return rs.lastExitDay == day && !rs.lastExitWasEOD
}

// open installs a new position. Two simultaneously open positions mean the
// causality or accounting logic is broken; abort loudly instead of masking it.
func (rs *runState) open(p *position) {
	if rs.pos != nil {
		panic(fmt.Sprintf("invariant breach: opening position at %s while one is open from %s",
			p.entryTime, rs.pos.entryTime))
	}
	rs.pos = p
	rs.state = stateLong
}

// close removes the open position.
func (rs *runState) close() *position {
	if rs.pos == nil {
		panic("invariant breach: closing position while flat")
	}
	p := rs.pos
	rs.pos = nil
	rs.state = stateFlat
	return p
}
