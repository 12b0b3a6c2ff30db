package compare

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"trend-backtester/internal/types"
)

// ReferenceTrade is one row of a reference trade log produced by another
// implementation of the same strategy.
type ReferenceTrade struct {
	EntryDay   string  `csv:"entry_day"`
	ExitDay    string  `csv:"exit_day"`
	EntryPrice float64 `csv:"entry_price"`
	ExitPrice  float64 `csv:"exit_price"`
	ExitReason string  `csv:"exit_reason"`
}

// LoadReference reads a reference trade CSV.
func LoadReference(path string) ([]ReferenceTrade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rows []ReferenceTrade
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("parse reference log %s: %w", path, err)
	}
	return rows, nil
}

// Mismatch is a trade pair that shares entry and exit days but disagrees on
// prices or exit reason.
type Mismatch struct {
	Ours   types.Trade
	Theirs ReferenceTrade
	Detail string
}

// Summary of a comparison between our trades and a reference log.
type Summary struct {
	Matched    int
	Mismatched []Mismatch
	OnlyOurs   []types.Trade
	OnlyTheirs []ReferenceTrade
}

func key(entryDay, exitDay string) string {
	return entryDay + "/" + exitDay
}

// Compare pairs trades by entry and exit day, then checks prices within
// priceTol (absolute dollars) and exit reasons.
func Compare(ours []types.Trade, theirs []ReferenceTrade, priceTol float64) Summary {
	var s Summary

	ref := make(map[string]ReferenceTrade, len(theirs))
	for _, rt := range theirs {
		ref[key(rt.EntryDay, rt.ExitDay)] = rt
	}
	seen := make(map[string]bool, len(theirs))

	for _, t := range ours {
		k := key(string(types.DayOf(t.EntryTime)), string(types.DayOf(t.ExitTime)))
		rt, ok := ref[k]
		if !ok {
			s.OnlyOurs = append(s.OnlyOurs, t)
			continue
		}
		seen[k] = true

		var problems []string
		if d := math.Abs(t.EntryPrice - rt.EntryPrice); d > priceTol {
			problems = append(problems, fmt.Sprintf("entry price %.4f vs %.4f", t.EntryPrice, rt.EntryPrice))
		}
		if d := math.Abs(t.ExitPrice - rt.ExitPrice); d > priceTol {
			problems = append(problems, fmt.Sprintf("exit price %.4f vs %.4f", t.ExitPrice, rt.ExitPrice))
		}
		if rt.ExitReason != "" && rt.ExitReason != string(t.ExitReason) {
			problems = append(problems, fmt.Sprintf("exit reason %s vs %s", t.ExitReason, rt.ExitReason))
		}

		if len(problems) == 0 {
			s.Matched++
		} else {
			s.Mismatched = append(s.Mismatched, Mismatch{
				Ours:   t,
				Theirs: rt,
				Detail: strings.Join(problems, "; "),
			})
		}
	}

	for _, rt := range theirs {
		if !seen[key(rt.EntryDay, rt.ExitDay)] {
			s.OnlyTheirs = append(s.OnlyTheirs, rt)
		}
	}

	return s
}

// Clean reports whether the comparison found no differences.
func (s Summary) Clean() bool {
	return len(s.Mismatched) == 0 && len(s.OnlyOurs) == 0 && len(s.OnlyTheirs) == 0
}

// Write renders a human-readable comparison summary.
func (s Summary) Write(w io.Writer) {
	fmt.Fprintf(w, "matched=%d mismatched=%d only_ours=%d only_reference=%d\n",
		s.Matched, len(s.Mismatched), len(s.OnlyOurs), len(s.OnlyTheirs))
	for _, m := range s.Mismatched {
		fmt.Fprintf(w, "MISMATCH %s -> %s: %s\n",
			types.DayOf(m.Ours.EntryTime), types.DayOf(m.Ours.ExitTime), m.Detail)
	}
	for _, t := range s.OnlyOurs {
		fmt.Fprintf(w, "ONLY OURS %s -> %s (%s/%s)\n",
			types.DayOf(t.EntryTime), types.DayOf(t.ExitTime), t.EntryReason, t.ExitReason)
	}
	for _, rt := range s.OnlyTheirs {
		fmt.Fprintf(w, "ONLY REFERENCE %s -> %s (%s)\n", rt.EntryDay, rt.ExitDay, rt.ExitReason)
	}
}
