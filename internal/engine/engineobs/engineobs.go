package engineobs

import (
	"context"
	"time"

	"trend-backtester/internal/interfaces"
	"trend-backtester/internal/logger"
	"trend-backtester/internal/trace"
	"trend-backtester/internal/types"
)

type observableRunner struct {
	runner interfaces.Runner
}

var _ interfaces.Runner = (*observableRunner)(nil)

func Wrap(r interfaces.Runner) interfaces.Runner {
	return &observableRunner{
		runner: r,
	}
}

func (or *observableRunner) Run(ctx context.Context) (*types.RunResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Run")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting replay")

	result, err := or.runner.Run(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Replay failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Replay completed",
		"run_id", result.RunID,
		"trades", len(result.Trades),
		"final_capital", result.FinalCapital,
		"total_slippage", result.TotalSlippage,
		"total_commission", result.TotalCommission,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
