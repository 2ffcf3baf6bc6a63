package valuation

import (
	"math"
	"sort"
	"time"
)

const (
	// splitDetectionWindowDays is how far (in calendar days) the visible jump
	// in a position series may sit from the nominal split date.
	splitDetectionWindowDays = 5
	// splitRatioTolerance is the relative tolerance when matching a jump in
	// share counts against a split ratio.
	splitRatioTolerance = 0.10
)

// EffectiveSplitDate finds the date on which a split's effect actually appears
// in the position series. It scans forward in time for the first adjacent pair
// of points, dated within the detection window around the nominal split date,
// whose ratio of successive share counts matches the split ratio or its
// reciprocal within tolerance. The reciprocal catches reverse splits and
// whichever direction the importing broker adjusted the counts in. When no
// pair qualifies the nominal date is returned unmodified.
//
// This is a best-effort heuristic: an unrelated position change inside the
// window that happens to match the ratio is accepted as the split.
func EffectiveSplitDate(history []PositionPoint, split SplitEvent) time.Time {
	lo := split.Date.AddDate(0, 0, -splitDetectionWindowDays)
	hi := split.Date.AddDate(0, 0, splitDetectionWindowDays)

	for i := 1; i < len(history); i++ {
		d := history[i].Date
		if d.Before(lo) {
			continue
		}
		if d.After(hi) {
			break
		}
		prev := history[i-1].Shares
		if math.Abs(prev) < sharesEpsilon {
			continue
		}
		jump := history[i].Shares / prev
		if ratioWithin(jump, split.Ratio) || ratioWithin(jump, 1/split.Ratio) {
			return d
		}
	}
	return split.Date
}

func ratioWithin(r, target float64) bool {
	if target == 0 {
		return false
	}
	return math.Abs(r/target-1) <= splitRatioTolerance
}

// ApplySplitAdjustments returns a copy of the position series with each day's
// share count multiplied by the ratios of all splits whose effective date
// falls strictly after that day. The day of the jump itself is assumed already
// post-split in the imported data, so it is not multiplied again. Multipliers
// compose commutatively, so multiple splits are applied independently.
func ApplySplitAdjustments(history []PositionPoint, splits []SplitEvent) []PositionPoint {
	adjusted := make([]PositionPoint, len(history))
	copy(adjusted, history)
	if len(splits) == 0 {
		return adjusted
	}

	type effectiveSplit struct {
		date  time.Time
		ratio float64
	}
	effective := make([]effectiveSplit, 0, len(splits))
	for _, s := range splits {
		if s.Ratio == 0 {
			continue
		}
		effective = append(effective, effectiveSplit{
			date:  EffectiveSplitDate(history, s),
			ratio: s.Ratio,
		})
	}
	sort.Slice(effective, func(i, j int) bool {
		return effective[i].date.Before(effective[j].date)
	})

	// Walk from the latest day backwards, accumulating the multiplier as
	// split effective dates are crossed.
	multiplier := 1.0
	k := len(effective) - 1
	for i := len(adjusted) - 1; i >= 0; i-- {
		for k >= 0 && effective[k].date.After(adjusted[i].Date) {
			multiplier *= effective[k].ratio
			k--
		}
		adjusted[i].Shares *= multiplier
	}
	return adjusted
}
