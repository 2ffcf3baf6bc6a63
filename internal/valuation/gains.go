package valuation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// buyLot is a single purchase with its not-yet-sold remainder.
type buyLot struct {
	quantity decimal.Decimal
	price    decimal.Decimal
}

// GainReport is the outcome of FIFO lot matching for one symbol.
type GainReport struct {
	// RealizedGain is the sum over all sells of matched_quantity * (sell price - buy price).
	RealizedGain float64
	// TotalCost is the lifetime sum of |quantity| * price over every buy ever
	// recorded. It is deliberately not reduced by sells.
	TotalCost float64
	// OpenShares and OpenCost describe the buy lots left unmatched after all
	// sells, i.e. the still-open position and its FIFO cost.
	OpenShares float64
	OpenCost   float64
}

// CalculateGains partitions a symbol's transactions into buys and sells and
// matches sells against the oldest remaining buy lots first. A sell exceeding
// the remaining buy quantity is a data inconsistency: matching stops once the
// buys are exhausted and the shortfall stays silently unmatched.
//
// The transactions may span several product identifiers when a position was
// reopened under a new one; callers pass the merged per-symbol stream.
func CalculateGains(txns []TransactionRecord) GainReport {
	sorted := make([]TransactionRecord, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var lots []buyLot
	realized := decimal.Zero
	totalCost := decimal.Zero

	for _, t := range sorted {
		if t.Quantity > 0 {
			quantity := decimal.NewFromFloat(t.Quantity)
			price := decimal.NewFromFloat(t.Price)
			lots = append(lots, buyLot{quantity: quantity, price: price})
			totalCost = totalCost.Add(quantity.Mul(price))
			continue
		}

		remaining := decimal.NewFromFloat(-t.Quantity)
		sellPrice := decimal.NewFromFloat(t.Price)
		for remaining.IsPositive() && len(lots) > 0 {
			lot := &lots[0]
			matched := decimal.Min(remaining, lot.quantity)
			realized = realized.Add(matched.Mul(sellPrice.Sub(lot.price)))
			lot.quantity = lot.quantity.Sub(matched)
			remaining = remaining.Sub(matched)
			if lot.quantity.IsZero() {
				lots = lots[1:]
			}
		}
	}

	openShares := decimal.Zero
	openCost := decimal.Zero
	for _, lot := range lots {
		openShares = openShares.Add(lot.quantity)
		openCost = openCost.Add(lot.quantity.Mul(lot.price))
	}

	realizedF, _ := realized.Float64()
	totalCostF, _ := totalCost.Float64()
	openSharesF, _ := openShares.Float64()
	openCostF, _ := openCost.Float64()
	return GainReport{
		RealizedGain: realizedF,
		TotalCost:    totalCostF,
		OpenShares:   openSharesF,
		OpenCost:     openCostF,
	}
}
