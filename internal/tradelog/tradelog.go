package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"trend-backtester/internal/types"
)

var mu sync.Mutex

// Entry is one simulated fill as written to the run's JSONL file. Time comes
// from the bar clock, not the wall clock, so reruns produce identical files.
type Entry struct {
	Time, Symbol, Side, Reason string
	Shares                     float64
	Price                      float64
	RawPrice                   float64
	Pnl                        float64        `json:"pnl,omitempty"`
	Extra                      map[string]any `json:"extra,omitempty"`
}

func logDir() string {
	if v := os.Getenv("BACKTEST_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func runFilepath(runID string) string {
	return filepath.Join(logDir(), runID+".txt")
}

func appendEntry(runID string, e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	p := runFilepath(runID)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// WriteRun writes the run's full fill log, two entries per trade.
func WriteRun(result *types.RunResult, symbol string) error {
	for _, t := range result.Trades {
		if err := appendEntry(result.RunID, Entry{
			Time:     t.EntryTime.Format("2006-01-02 15:04:05"),
			Symbol:   symbol,
			Side:     "BUY",
			Reason:   string(t.EntryReason),
			Shares:   t.Shares,
			Price:    t.EntryPrice,
			RawPrice: t.RawEntryPrice,
		}); err != nil {
			return err
		}
		if err := appendEntry(result.RunID, Entry{
			Time:     t.ExitTime.Format("2006-01-02 15:04:05"),
			Symbol:   symbol,
			Side:     "SELL",
			Reason:   string(t.ExitReason),
			Shares:   t.Shares,
			Price:    t.ExitPrice,
			RawPrice: t.RawExitPrice,
			Pnl:      t.PnlDollars,
			Extra: map[string]any{
				"holding_days": t.HoldingDays,
				"fixed_stop":   t.FixedStopAtExit,
				"trail_stop":   t.TrailingStopAtExit,
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// CompressOlder gzips log files older than retentionDays in place.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if info.ModTime().Before(cutoff) {
			gz := p + ".gz"
			if _, e2 := os.Stat(gz); e2 == nil {
				_ = os.Remove(p)
				return nil
			}

			in, e3 := os.Open(p)
			if e3 != nil {
				return nil
			}
			defer in.Close()

			out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if e4 != nil {
				return nil
			}
			gw := gzip.NewWriter(out)
			if _, e5 := io.Copy(gw, in); e5 == nil {
				_ = gw.Close()
				_ = out.Close()
				_ = os.Remove(p)
			} else {
				_ = gw.Close()
				_ = out.Close()
			}
		}
		return nil
	})
}
