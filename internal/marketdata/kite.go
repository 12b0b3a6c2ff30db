package marketdata

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"trend-backtester/internal/types"
)

// KiteFetcher pulls split-adjusted historical candles from the Zerodha Kite
// API to seed the local CSV cache. Backtests never talk to it directly; they
// replay from the cache.
type KiteFetcher struct {
	kc       *kiteconnect.Client
	exchange string

	tokens map[string]int
}

type KiteParams struct {
	APIKey      string
	AccessToken string
	Exchange    string
}

func NewKiteFetcher(p KiteParams) *KiteFetcher {
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return &KiteFetcher{
		kc:       kc,
		exchange: p.Exchange,
		tokens:   make(map[string]int),
	}
}

// resolveToken maps a trading symbol to its instrument token, caching the
// exchange instrument dump on first use.
func (kf *KiteFetcher) resolveToken(symbol string) (int, error) {
	if tok, ok := kf.tokens[symbol]; ok {
		return tok, nil
	}
	instruments, err := kf.kc.GetInstrumentsByExchange(kf.exchange)
	if err != nil {
		return 0, fmt.Errorf("fetch instruments for %s: %w", kf.exchange, err)
	}
	for _, in := range instruments {
		kf.tokens[in.Tradingsymbol] = in.InstrumentToken
	}
	tok, ok := kf.tokens[symbol]
	if !ok {
		return 0, fmt.Errorf("symbol %s not found on %s", symbol, kf.exchange)
	}
	return tok, nil
}

// FetchBars downloads candles for one symbol at the given interval
// ("day", "15minute", ...) between from and to, venue-local.
func (kf *KiteFetcher) FetchBars(ctx context.Context, symbol, interval string, from, to time.Time, loc *time.Location) ([]types.Bar, error) {
	tok, err := kf.resolveToken(symbol)
	if err != nil {
		return nil, err
	}

	var bars []types.Bar
	// The historical API caps one request's span; page by chunks.
	chunk := historicalChunk(interval)
	for cur := from; cur.Before(to); cur = cur.Add(chunk) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunkEnd := cur.Add(chunk)
		if chunkEnd.After(to) {
			chunkEnd = to
		}
		candles, err := kf.kc.GetHistoricalData(tok, interval, cur, chunkEnd, false, false)
		if err != nil {
			return nil, fmt.Errorf("historical %s %s [%s..%s]: %w",
				symbol, interval, cur.Format("2006-01-02"), chunkEnd.Format("2006-01-02"), err)
		}
		for _, c := range candles {
			bars = append(bars, types.Bar{
				Ts:     c.Date.Time.In(loc),
				Open:   c.Open,
				High:   c.High,
				Low:    c.Low,
				Close:  c.Close,
				Volume: float64(c.Volume),
			})
		}
	}
	return dedupeBars(bars), nil
}

func historicalChunk(interval string) time.Duration {
	if interval == "day" {
		return 365 * 24 * time.Hour
	}
	// Intraday intervals allow far fewer candles per request.
	return 60 * 24 * time.Hour
}

// dedupeBars drops duplicate timestamps at chunk boundaries, keeping order.
func dedupeBars(bars []types.Bar) []types.Bar {
	out := bars[:0:0]
	var last time.Time
	for _, b := range bars {
		if !last.IsZero() && !b.Ts.After(last) {
			continue
		}
		out = append(out, b)
		last = b.Ts
	}
	return out
}
