package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"trend-backtester/internal/marketdata"
	"trend-backtester/internal/store"
)

// fetch seeds the local CSV cache with split-adjusted candles for both
// symbols: daily bars for the signal asset and intraday bars for both.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Run.StartDate == "" || cfg.Run.EndDate == "" {
		logger.Fatal("run.start_date and run.end_date are required for fetching")
	}

	loc := cfg.Location()
	from, _ := time.ParseInLocation("2006-01-02", cfg.Run.StartDate, loc)
	to, _ := time.ParseInLocation("2006-01-02", cfg.Run.EndDate, loc)
	to = to.AddDate(0, 0, 1)

	// Daily history must reach back far enough to warm the indicator before
	// the run starts. Calendar days overshoot trading days, so pad generously.
	dailyFrom := from.AddDate(0, 0, -2*cfg.Strategy.SMAPeriod-30)

	fetcher := marketdata.NewKiteFetcher(marketdata.KiteParams{
		APIKey:      os.Getenv("KITE_API_KEY"),
		AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
		Exchange:    cfg.Data.Fetch.Exchange,
	})

	ctx := context.Background()
	jobs := []struct {
		symbol   string
		interval string
		from     time.Time
		file     string
	}{
		{cfg.Strategy.SignalSymbol, "day", dailyFrom,
			marketdata.CacheFile(cfg.Data.CacheDir, cfg.Strategy.SignalSymbol, "daily")},
		{cfg.Strategy.SignalSymbol, cfg.Data.Fetch.Interval, from,
			marketdata.CacheFile(cfg.Data.CacheDir, cfg.Strategy.SignalSymbol, "15min")},
		{cfg.Strategy.TradeSymbol, cfg.Data.Fetch.Interval, from,
			marketdata.CacheFile(cfg.Data.CacheDir, cfg.Strategy.TradeSymbol, "15min")},
	}

	for _, j := range jobs {
		logger.Info("Fetching candles",
			zap.String("symbol", j.symbol),
			zap.String("interval", j.interval),
			zap.String("from", j.from.Format("2006-01-02")),
			zap.String("to", to.Format("2006-01-02")),
		)
		bars, err := fetcher.FetchBars(ctx, j.symbol, j.interval, j.from, to, loc)
		if err != nil {
			logger.Fatal("Fetch failed",
				zap.String("symbol", j.symbol),
				zap.String("interval", j.interval),
				zap.Error(err),
			)
		}
		if err := marketdata.WriteBars(j.file, bars); err != nil {
			logger.Fatal("Cache write failed", zap.String("file", j.file), zap.Error(err))
		}
		logger.Info("Cache written",
			zap.String("file", j.file),
			zap.Int("bars", len(bars)),
		)
	}
}
