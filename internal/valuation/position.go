package valuation

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrNoTransactions is returned when a position history is requested for an
// empty transaction list. Products without transactions must be filtered out
// by the caller; receiving none here is a programming error, not missing data.
var ErrNoTransactions = errors.New("no transactions to build position history from")

const sharesEpsilon = 1e-9

// BuildPositionHistory turns a product's transaction stream into a dense
// day-by-day cumulative-shares series. Days without a transaction carry the
// last known value forward (step function). The series starts on the first
// transaction day and runs through today, except that a position whose
// cumulative value is zero after its final transaction ends on the day it
// returned to zero: trailing zero days are not carried forward.
func BuildPositionHistory(txns []TransactionRecord, today time.Time) ([]PositionPoint, error) {
	if len(txns) == 0 {
		return nil, ErrNoTransactions
	}

	sorted := make([]TransactionRecord, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var total float64
	for _, t := range sorted {
		total += t.Quantity
	}

	first := Day(sorted[0].Date)
	last := Day(sorted[len(sorted)-1].Date)
	end := Day(today)
	if end.Before(last) {
		end = last
	}
	if math.Abs(total) < sharesEpsilon {
		// Fully closed and never reopened: the series ends on the day the
		// position returned to zero.
		end = last
	}

	history := make([]PositionPoint, 0, int(end.Sub(first).Hours()/24)+1)
	cumulative := 0.0
	i := 0
	for d := first; !d.After(end); d = nextDay(d) {
		for i < len(sorted) && !Day(sorted[i].Date).After(d) {
			cumulative += sorted[i].Quantity
			i++
		}
		history = append(history, PositionPoint{Date: d, Shares: cumulative})
	}
	return history, nil
}
