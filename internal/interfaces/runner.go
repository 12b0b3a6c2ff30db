package interfaces

import (
	"context"

	"trend-backtester/internal/types"
)

// Runner executes one full replay and returns its result.
type Runner interface {
	Run(ctx context.Context) (*types.RunResult, error)
}
