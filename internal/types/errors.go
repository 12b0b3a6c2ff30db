package types

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter wraps every pre-run parameter rejection.
var ErrInvalidParameter = errors.New("invalid parameter")

// InsufficientHistoryError means the indicator cannot be seeded: fewer than
// Need daily closes exist strictly before Day.
type InsufficientHistoryError struct {
	Day  Day
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s: have %d prior days, need %d", e.Day, e.Have, e.Need)
}

// DataGapError means a trading day or bar is missing inside the run range.
// Gaps are fatal: skipping them would corrupt causal indicator lookups.
type DataGapError struct {
	Day    Day
	Detail string
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("data gap on %s: %s", e.Day, e.Detail)
}
