package marketdata

import (
	"time"

	"trend-backtester/internal/types"
)

// AlignedBar pairs the signal and traded assets at one intraday timestamp.
// Decisions read the signal side; fills price against the traded side.
type AlignedBar struct {
	Ts     time.Time
	Signal types.Bar
	Traded types.Bar
}

// Stream is an ordered intraday replay for one run: trading days in order,
// each owning its session bars. Immutable once built.
type Stream struct {
	days []types.Day
	bars map[types.Day][]AlignedBar
}

// Days returns the trading days in chronological order.
func (s *Stream) Days() []types.Day { return s.days }

// Bars returns the ordered session bars for one day.
func (s *Stream) Bars(d types.Day) []AlignedBar { return s.bars[d] }

// NumBars returns the total bar count across all days.
func (s *Stream) NumBars() int {
	n := 0
	for _, d := range s.days {
		n += len(s.bars[d])
	}
	return n
}

// LastBar returns the final bar of the replay.
func (s *Stream) LastBar() (AlignedBar, bool) {
	if len(s.days) == 0 {
		return AlignedBar{}, false
	}
	last := s.bars[s.days[len(s.days)-1]]
	return last[len(last)-1], true
}
