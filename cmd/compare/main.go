package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"trend-backtester/internal/compare"
	"trend-backtester/internal/types"
)

// compare checks a run's trades against a reference trade log produced by
// another implementation of the same strategy. Exit code 0 means the run
// matches the reference within tolerance.
func main() {
	tradesPath := flag.String("trades", "", "path to run trades JSON")
	refPath := flag.String("ref", "", "path to reference trade CSV")
	tol := flag.Float64("tol", 0.01, "absolute price tolerance in dollars")
	flag.Parse()

	if *tradesPath == "" || *refPath == "" {
		log.Fatal("both -trades and -ref are required")
	}

	trades, err := loadTrades(*tradesPath)
	if err != nil {
		log.Fatalf("load trades: %v", err)
	}
	ref, err := compare.LoadReference(*refPath)
	if err != nil {
		log.Fatalf("load reference: %v", err)
	}

	summary := compare.Compare(trades, ref, *tol)
	summary.Write(os.Stdout)
	if !summary.Clean() {
		os.Exit(1)
	}
}

func loadTrades(path string) ([]types.Trade, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var trades []types.Trade
	if err := json.Unmarshal(b, &trades); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return trades, nil
}
