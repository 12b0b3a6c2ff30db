package marketdata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"trend-backtester/internal/types"
)

func writeRaw(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o644)
}

func TestCacheFileNaming(t *testing.T) {
	got := CacheFile("cache", "TQQQ", "15min")
	want := filepath.Join("cache", "tqqq_15min.csv")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestWriteAndLoadBars(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "qqq_15min.csv")

	// Written out of order; load must sort by time.
	in := []types.Bar{
		{Ts: time.Date(2024, 1, 3, 9, 45, 0, 0, loc), Open: 101, High: 102, Low: 100.5, Close: 101.5, Volume: 2000},
		{Ts: time.Date(2024, 1, 3, 9, 30, 0, 0, loc), Open: 100, High: 101, Low: 99.5, Close: 100.5, Volume: 1000},
	}
	if err := WriteBars(path, in); err != nil {
		t.Fatal(err)
	}

	out, err := LoadBars(path, loc)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(out))
	}
	if !out[0].Ts.Before(out[1].Ts) {
		t.Error("expected bars sorted by time")
	}
	if out[0].Close != 100.5 || out[1].Volume != 2000 {
		t.Errorf("unexpected bars after round trip: %+v", out)
	}
	if out[0].Ts.Hour() != 9 || out[0].Ts.Minute() != 30 {
		t.Errorf("expected venue-local 09:30, got %s", out[0].Ts)
	}
}

func TestLoadBarsRejectsBadTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := WriteBars(path, nil); err != nil {
		t.Fatal(err)
	}
	// Overwrite with a malformed row.
	if err := writeRaw(path, "timestamp,open,high,low,close,volume\nnot-a-time,1,1,1,1,1\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBars(path, time.UTC); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}
