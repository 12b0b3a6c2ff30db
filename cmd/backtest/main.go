package main

import (
	"context"
	"flag"
	"log"
	"os"

	"trend-backtester/internal/compare"
	"trend-backtester/internal/logger"
	"trend-backtester/internal/report"
	"trend-backtester/internal/store"
	"trend-backtester/internal/trace"
	"trend-backtester/internal/tradelog"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	must(initializeSystem())
	defer trace.Shutdown(context.Background())

	ctx := context.Background()

	cfg, err := store.LoadConfig(*configPath)
	must(err)

	compressOldLogs(ctx)

	sma, stream, err := loadInputs(ctx, cfg)
	must(err)

	runner := buildRunner(cfg, sma, stream)
	result, err := runner.Run(ctx)
	must(err)

	must(tradelog.WriteRun(result, cfg.Strategy.TradeSymbol))

	rp := report.Params{
		SignalSymbol:    cfg.Strategy.SignalSymbol,
		TradeSymbol:     cfg.Strategy.TradeSymbol,
		SMAPeriod:       cfg.Strategy.SMAPeriod,
		FixedStopPct:    cfg.Strategy.FixedStopPct,
		TrailingStopPct: cfg.Strategy.TrailingStopPct,
		SlippagePct:     cfg.Strategy.SlippagePct,
		TaxRatePct:      cfg.Strategy.TaxRatePct,
		StartingCapital: cfg.Strategy.StartingCapital,
	}
	must(report.Write(os.Stdout, result, rp))

	reportPath, err := report.WriteFile(cfg.Report.OutDir, result, rp)
	must(err)
	equityPath, err := report.WriteEquityCSV(cfg.Report.OutDir, result)
	must(err)
	tradesPath, err := report.WriteTradesJSON(cfg.Report.OutDir, result)
	must(err)
	logger.Info(ctx, "Artifacts written",
		"report", reportPath,
		"equity_curve", equityPath,
		"trades", tradesPath,
	)

	if cfg.Report.ReferenceLog != "" {
		ref, err := compare.LoadReference(cfg.Report.ReferenceLog)
		must(err)
		summary := compare.Compare(result.Trades, ref, 0.01)
		summary.Write(os.Stdout)
		if !summary.Clean() {
			os.Exit(1)
		}
	}
}
