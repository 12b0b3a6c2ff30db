package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"trend-backtester/internal/engine"
	"trend-backtester/internal/engine/engineobs"
	"trend-backtester/internal/indicator"
	"trend-backtester/internal/interfaces"
	"trend-backtester/internal/logger"
	"trend-backtester/internal/marketdata"
	"trend-backtester/internal/store"
	"trend-backtester/internal/trace"
	"trend-backtester/internal/tradelog"
	"trend-backtester/internal/types"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// compressOldLogs compresses old run logs if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("BACKTEST_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// loadInputs reads the cached bar files, builds the daily indicator and the
// aligned intraday stream.
func loadInputs(ctx context.Context, cfg *store.Config) (*indicator.Series, *marketdata.Stream, error) {
	loc := cfg.Location()
	cache := cfg.Data.CacheDir

	dailySignal, err := marketdata.LoadBars(marketdata.CacheFile(cache, cfg.Strategy.SignalSymbol, "daily"), loc)
	if err != nil {
		return nil, nil, fmt.Errorf("load daily %s bars: %w", cfg.Strategy.SignalSymbol, err)
	}
	intraSignal, err := marketdata.LoadBars(marketdata.CacheFile(cache, cfg.Strategy.SignalSymbol, "15min"), loc)
	if err != nil {
		return nil, nil, fmt.Errorf("load intraday %s bars: %w", cfg.Strategy.SignalSymbol, err)
	}
	intraTraded, err := marketdata.LoadBars(marketdata.CacheFile(cache, cfg.Strategy.TradeSymbol, "15min"), loc)
	if err != nil {
		return nil, nil, fmt.Errorf("load intraday %s bars: %w", cfg.Strategy.TradeSymbol, err)
	}

	filter, err := marketdata.NewSessionFilter(cfg.Data.SessionOpen, cfg.Data.SessionClose)
	if err != nil {
		return nil, nil, err
	}
	intraSignal = filter.Apply(intraSignal)
	intraTraded = filter.Apply(intraTraded)

	sma, err := indicator.NewSMA(dailySignal, cfg.Strategy.SMAPeriod)
	if err != nil {
		return nil, nil, err
	}

	dailyDays := make([]types.Day, 0, len(dailySignal))
	for _, b := range dailySignal {
		dailyDays = append(dailyDays, b.Day())
	}

	stream, err := marketdata.Align(intraSignal, intraTraded, dailyDays,
		types.Day(cfg.Run.StartDate), types.Day(cfg.Run.EndDate))
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "Inputs loaded",
		"daily_bars", len(dailySignal),
		"trading_days", len(stream.Days()),
		"intraday_bars", stream.NumBars(),
	)
	return sma, stream, nil
}

// buildRunner assembles the replay engine with observability
func buildRunner(cfg *store.Config, sma *indicator.Series, stream *marketdata.Stream) interfaces.Runner {
	eng := engine.New(engine.Params{
		SignalSymbol:    cfg.Strategy.SignalSymbol,
		TradeSymbol:     cfg.Strategy.TradeSymbol,
		SMAPeriod:       cfg.Strategy.SMAPeriod,
		FixedStopPct:    cfg.Strategy.FixedStopPct,
		TrailingStopPct: cfg.Strategy.TrailingStopPct,
		SlippagePct:     cfg.Strategy.SlippagePct,
		CommissionMode:  cfg.Strategy.Commission.Mode,
		CommissionValue: cfg.Strategy.Commission.Value,
		StartingCapital: cfg.Strategy.StartingCapital,
	}, sma, stream)

	return engineobs.Wrap(eng)
}
