package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateGains_SingleRoundTrip(t *testing.T) {
	txns := []TransactionRecord{
		buy(1, day(2024, time.January, 1), 10, 100),
		buy(1, day(2024, time.February, 1), -10, 150),
	}

	report := CalculateGains(txns)

	assert.Equal(t, 500.0, report.RealizedGain)
	assert.Equal(t, 1000.0, report.TotalCost)
	assert.Equal(t, 0.0, report.OpenShares)
	assert.Equal(t, 0.0, report.OpenCost)
}

func TestCalculateGains_PartialSell(t *testing.T) {
	txns := []TransactionRecord{
		buy(1, day(2024, time.January, 1), 10, 100),
		buy(1, day(2024, time.February, 1), -4, 150),
	}

	report := CalculateGains(txns)

	assert.Equal(t, 200.0, report.RealizedGain)
	// Lifetime cost of all buys; deliberately not reduced by the sell.
	assert.Equal(t, 1000.0, report.TotalCost)
	assert.Equal(t, 6.0, report.OpenShares)
	assert.Equal(t, 600.0, report.OpenCost)
}

func TestCalculateGains_FIFOConsumesOldestLotsFirst(t *testing.T) {
	txns := []TransactionRecord{
		buy(1, day(2024, time.January, 1), 5, 100),
		buy(1, day(2024, time.February, 1), 5, 200),
		buy(1, day(2024, time.March, 1), -6, 300),
	}

	report := CalculateGains(txns)

	// 5 shares from the 100 lot and 1 from the 200 lot.
	assert.Equal(t, 5*200.0+1*100.0, report.RealizedGain)
	assert.Equal(t, 4.0, report.OpenShares)
	assert.Equal(t, 800.0, report.OpenCost)
}

func TestCalculateGains_OversellStopsSilently(t *testing.T) {
	txns := []TransactionRecord{
		buy(1, day(2024, time.January, 1), 5, 100),
		buy(1, day(2024, time.February, 1), -10, 150),
	}

	report := CalculateGains(txns)

	// Matching stops once the buys are exhausted; the shortfall of 5 shares
	// is unmatched and raises no error.
	assert.Equal(t, 250.0, report.RealizedGain)
	assert.Equal(t, 0.0, report.OpenShares)
}

func TestCalculateGains_MergedProductIdentifiers(t *testing.T) {
	// The same symbol reopened under a new product identifier: the merged
	// stream is matched as one FIFO queue in timestamp order.
	txns := []TransactionRecord{
		buy(2, day(2024, time.March, 1), 5, 120),
		buy(1, day(2024, time.January, 1), 5, 100),
		buy(1, day(2024, time.February, 1), -5, 110),
		buy(2, day(2024, time.April, 1), -5, 130),
	}

	report := CalculateGains(txns)

	assert.Equal(t, 5*10.0+5*10.0, report.RealizedGain)
	assert.Equal(t, 1100.0, report.TotalCost)
	assert.Equal(t, 0.0, report.OpenShares)
}

func TestCalculateGains_NoTransactions(t *testing.T) {
	report := CalculateGains(nil)

	assert.Zero(t, report.RealizedGain)
	assert.Zero(t, report.TotalCost)
	assert.Zero(t, report.OpenShares)
}
