package indicator

import (
	"fmt"
	"sort"

	"trend-backtester/internal/types"
)

// Series is a per-day simple moving average over daily closes.
//
// It exposes two lookups that must never substitute for each other:
// ValueAsOf is causal (prior days only) and drives every intraday decision;
// ValueOnDay includes the day's own close and is read only during end-of-day
// reconciliation. Keeping them separate is the lookahead-bias guard.
type Series struct {
	period int
	days   []types.Day
	index  map[types.Day]int
	closes []float64
	// sma[i] is the mean of closes[i-period+1..i]; NaN-free, only defined
	// for i >= period-1 (tracked via defined offset).
	sma []float64
}

// NewSMA builds the series from daily bars sorted by timestamp.
func NewSMA(daily []types.Bar, period int) (*Series, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: sma period must be positive, got %d", types.ErrInvalidParameter, period)
	}
	s := &Series{
		period: period,
		days:   make([]types.Day, 0, len(daily)),
		index:  make(map[types.Day]int, len(daily)),
		closes: make([]float64, 0, len(daily)),
		sma:    make([]float64, len(daily)),
	}
	prefix := 0.0
	prefixes := make([]float64, len(daily)+1)
	for i, b := range daily {
		d := b.Day()
		if i > 0 && !s.days[i-1].Before(d) {
			return nil, fmt.Errorf("daily bars out of order at %s", d)
		}
		s.days = append(s.days, d)
		s.index[d] = i
		s.closes = append(s.closes, b.Close)
		prefix += b.Close
		prefixes[i+1] = prefix
		if i >= period-1 {
			s.sma[i] = (prefixes[i+1] - prefixes[i+1-period]) / float64(period)
		}
	}
	return s, nil
}

func (s *Series) Period() int { return s.period }

// Has reports whether day is a trading day in the daily series.
func (s *Series) Has(day types.Day) bool {
	_, ok := s.index[day]
	return ok
}

// CloseOn returns day's daily close.
func (s *Series) CloseOn(day types.Day) (float64, bool) {
	i, ok := s.index[day]
	if !ok {
		return 0, false
	}
	return s.closes[i], true
}

// ValueAsOf returns the SMA computed from closes strictly before day.
// day itself does not need to be in the series. Fails with
// InsufficientHistoryError when fewer than period prior days exist.
func (s *Series) ValueAsOf(day types.Day) (float64, error) {
	// count of days strictly before day
	n := sort.Search(len(s.days), func(i int) bool { return !s.days[i].Before(day) })
	if n < s.period {
		return 0, &types.InsufficientHistoryError{Day: day, Have: n, Need: s.period}
	}
	return s.sma[n-1], nil
}

// ValueOnDay returns the SMA including day's own close. EOD reconciliation
// only, never for intraday decisions.
func (s *Series) ValueOnDay(day types.Day) (float64, error) {
	i, ok := s.index[day]
	if !ok {
		return 0, &types.DataGapError{Day: day, Detail: "no daily bar for indicator lookup"}
	}
	if i < s.period-1 {
		return 0, &types.InsufficientHistoryError{Day: day, Have: i + 1, Need: s.period}
	}
	return s.sma[i], nil
}
