package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildPositionHistory_CarryForward(t *testing.T) {
	txns := []TransactionRecord{
		buy(1, day(2024, time.January, 1), 10, 100),
		buy(1, day(2024, time.January, 4), 5, 110),
	}

	history, err := BuildPositionHistory(txns, day(2024, time.January, 7))

	assert.NoError(t, err)
	assert.Len(t, history, 7)
	expected := []float64{10, 10, 10, 15, 15, 15, 15}
	for i, point := range history {
		assert.Equal(t, day(2024, time.January, 1+i), point.Date)
		assert.Equal(t, expected[i], point.Shares)

		// Carry-forward invariant: the value at each date equals the sum of
		// signed quantities of all transactions up to and including it.
		sum := 0.0
		for _, txn := range txns {
			if !txn.Date.After(point.Date) {
				sum += txn.Quantity
			}
		}
		assert.Equal(t, sum, point.Shares)
	}
}

func TestBuildPositionHistory_SingleTransaction(t *testing.T) {
	txns := []TransactionRecord{buy(1, day(2024, time.March, 1), 7, 50)}

	history, err := BuildPositionHistory(txns, day(2024, time.March, 4))

	assert.NoError(t, err)
	assert.Len(t, history, 4)
	for _, point := range history {
		assert.Equal(t, 7.0, point.Shares)
	}
}

func TestBuildPositionHistory_ClosedPositionEndsOnZeroDay(t *testing.T) {
	txns := []TransactionRecord{
		buy(1, day(2024, time.January, 1), 10, 100),
		buy(1, day(2024, time.January, 5), -10, 120),
	}

	history, err := BuildPositionHistory(txns, day(2024, time.January, 20))

	assert.NoError(t, err)
	// The series ends on the day the position returned to zero, not today.
	assert.Len(t, history, 5)
	assert.Equal(t, day(2024, time.January, 5), history[len(history)-1].Date)
	assert.Equal(t, 0.0, history[len(history)-1].Shares)
}

func TestBuildPositionHistory_ReopenedPositionRunsThroughToday(t *testing.T) {
	txns := []TransactionRecord{
		buy(1, day(2024, time.January, 1), 10, 100),
		buy(1, day(2024, time.January, 3), -10, 120),
		buy(1, day(2024, time.January, 6), 5, 90),
	}

	history, err := BuildPositionHistory(txns, day(2024, time.January, 8))

	assert.NoError(t, err)
	expected := []float64{10, 10, 0, 0, 0, 5, 5, 5}
	assert.Len(t, history, len(expected))
	for i, point := range history {
		assert.Equal(t, expected[i], point.Shares)
	}
}

func TestBuildPositionHistory_UnorderedInputIsSorted(t *testing.T) {
	txns := []TransactionRecord{
		buy(1, day(2024, time.January, 4), 5, 110),
		buy(1, day(2024, time.January, 1), 10, 100),
	}

	history, err := BuildPositionHistory(txns, day(2024, time.January, 4))

	assert.NoError(t, err)
	assert.Equal(t, 10.0, history[0].Shares)
	assert.Equal(t, 15.0, history[3].Shares)
}

func TestBuildPositionHistory_EmptyInput(t *testing.T) {
	_, err := BuildPositionHistory(nil, day(2024, time.January, 1))

	assert.ErrorIs(t, err, ErrNoTransactions)
}
