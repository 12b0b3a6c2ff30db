package marketdata

import (
	"sort"

	"trend-backtester/internal/types"
)

// Align builds the replay stream from session-filtered intraday bars of the
// signal and traded assets.
//
// The two intraday series must cover identical timestamps, and every intraday
// trading day must carry a daily bar (and vice versa, within the intraday
// range). Any mismatch is a DataGapError: silently intersecting would shift
// causal indicator lookups.
func Align(signal, traded []types.Bar, dailyDays []types.Day, start, end types.Day) (*Stream, error) {
	signal = clipDays(signal, start, end)
	traded = clipDays(traded, start, end)

	sigByDay := groupByDay(signal)
	trdByDay := groupByDay(traded)

	days := unionDays(sigByDay, trdByDay)
	if len(days) == 0 {
		return &Stream{days: nil, bars: map[types.Day][]AlignedBar{}}, nil
	}

	daily := make(map[types.Day]bool, len(dailyDays))
	for _, d := range dailyDays {
		daily[d] = true
	}

	out := &Stream{bars: make(map[types.Day][]AlignedBar, len(days))}
	for _, d := range days {
		sig, trd := sigByDay[d], trdByDay[d]
		if len(sig) == 0 {
			return nil, &types.DataGapError{Day: d, Detail: "no signal-asset bars"}
		}
		if len(trd) == 0 {
			return nil, &types.DataGapError{Day: d, Detail: "no traded-asset bars"}
		}
		if len(sig) != len(trd) {
			return nil, &types.DataGapError{Day: d, Detail: "signal and traded bar counts differ"}
		}
		aligned := make([]AlignedBar, 0, len(sig))
		for i := range sig {
			if !sig[i].Ts.Equal(trd[i].Ts) {
				return nil, &types.DataGapError{Day: d, Detail: "bar missing at " + sig[i].Ts.Format("15:04")}
			}
			aligned = append(aligned, AlignedBar{Ts: sig[i].Ts, Signal: sig[i], Traded: trd[i]})
		}
		if !daily[d] {
			return nil, &types.DataGapError{Day: d, Detail: "intraday bars without a daily bar"}
		}
		out.days = append(out.days, d)
		out.bars[d] = aligned
	}

	// Daily days inside the intraday range must show up intraday too.
	first, last := out.days[0], out.days[len(out.days)-1]
	for _, d := range dailyDays {
		if d.Before(first) || last.Before(d) {
			continue
		}
		if _, ok := out.bars[d]; !ok {
			return nil, &types.DataGapError{Day: d, Detail: "daily bar without intraday bars"}
		}
	}

	return out, nil
}

func clipDays(bars []types.Bar, start, end types.Day) []types.Bar {
	out := bars[:0:0]
	for _, b := range bars {
		d := b.Day()
		if start != "" && d.Before(start) {
			continue
		}
		if end != "" && end.Before(d) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func groupByDay(bars []types.Bar) map[types.Day][]types.Bar {
	m := make(map[types.Day][]types.Bar)
	for _, b := range bars {
		d := b.Day()
		m[d] = append(m[d], b)
	}
	return m
}

func unionDays(a, b map[types.Day][]types.Bar) []types.Day {
	seen := make(map[types.Day]bool, len(a)+len(b))
	days := make([]types.Day, 0, len(a))
	for d := range a {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	for d := range b {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
