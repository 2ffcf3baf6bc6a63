package valuation

import (
	"sort"
	"time"
)

// Day truncates a timestamp to midnight UTC. All date-keyed maps in this
// package use Day-normalized keys so that time.Time map lookups are exact.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nextDay(d time.Time) time.Time {
	return d.AddDate(0, 0, 1)
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func sortedDates(m map[time.Time]float64) []time.Time {
	dates := make([]time.Time, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
