package marketdata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"trend-backtester/internal/types"
)

// csvBar mirrors one row of a cached bar file. Timestamps are RFC3339 as
// written by cmd/fetch; OHLCV is split-adjusted.
type csvBar struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

// CacheFile returns the conventional cache path for a symbol/granularity,
// e.g. cache/qqq_15min.csv or cache/qqq_daily.csv.
func CacheFile(cacheDir, symbol, granularity string) string {
	name := fmt.Sprintf("%s_%s.csv", strings.ToLower(symbol), granularity)
	return filepath.Join(cacheDir, name)
}

// LoadBars reads a cached bar CSV, converts timestamps into the venue time
// zone and returns bars sorted by time.
func LoadBars(path string, loc *time.Location) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*csvBar
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	bars := make([]types.Bar, 0, len(rows))
	for i, r := range rows {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse %s row %d: bad timestamp '%s'", path, i+1, r.Timestamp)
		}
		bars = append(bars, types.Bar{
			Ts:     ts.In(loc),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Ts.Before(bars[j].Ts) })
	return bars, nil
}

// WriteBars writes bars to a cache CSV, creating parent directories.
func WriteBars(path string, bars []types.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	rows := make([]*csvBar, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, &csvBar{
			Timestamp: b.Ts.Format(time.RFC3339),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&rows, f)
}

// SessionFilter keeps bars inside venue session hours [open, close).
type SessionFilter struct {
	openMin  int
	closeMin int
}

// NewSessionFilter parses HH:MM session bounds.
func NewSessionFilter(open, close string) (SessionFilter, error) {
	om, err := parseMinutes(open)
	if err != nil {
		return SessionFilter{}, fmt.Errorf("%w: session_open '%s'", types.ErrInvalidParameter, open)
	}
	cm, err := parseMinutes(close)
	if err != nil {
		return SessionFilter{}, fmt.Errorf("%w: session_close '%s'", types.ErrInvalidParameter, close)
	}
	if cm <= om {
		return SessionFilter{}, fmt.Errorf("%w: session close %s not after open %s", types.ErrInvalidParameter, close, open)
	}
	return SessionFilter{openMin: om, closeMin: cm}, nil
}

func parseMinutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Apply returns only the bars whose timestamp falls inside the session.
func (sf SessionFilter) Apply(bars []types.Bar) []types.Bar {
	out := make([]types.Bar, 0, len(bars))
	for _, b := range bars {
		m := b.Ts.Hour()*60 + b.Ts.Minute()
		if m >= sf.openMin && m < sf.closeMin {
			out = append(out, b)
		}
	}
	return out
}
