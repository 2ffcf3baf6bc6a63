package valuation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeData implements every collaborator interface of the engine in memory.
type fakeData struct {
	mu       sync.Mutex
	products []ProductInfo
	txns     map[uint][]TransactionRecord
	bySymbol map[string][]TransactionRecord
	quotes   map[uint]map[time.Time]float64
	splits   map[string][]SplitEvent
	cash     map[time.Time]float64
	deposits float64

	// fxRates is keyed by "FROM/TO" then by date.
	fxRates map[string]map[time.Time]float64
	// convertDates records the as-of dates the engine converted with.
	convertDates []time.Time
}

func (f *fakeData) Products() ([]ProductInfo, error) { return f.products, nil }

func (f *fakeData) Transactions(productID uint) ([]TransactionRecord, error) {
	return f.txns[productID], nil
}

func (f *fakeData) TransactionsBySymbol(symbol string) ([]TransactionRecord, error) {
	return f.bySymbol[symbol], nil
}

func (f *fakeData) Quotes(productID uint) (map[time.Time]float64, error) {
	return f.quotes[productID], nil
}

func (f *fakeData) Splits(symbol string) ([]SplitEvent, error) { return f.splits[symbol], nil }

func (f *fakeData) BalanceSeries() (map[time.Time]float64, error) { return f.cash, nil }

func (f *fakeData) NetDeposits() (float64, error) { return f.deposits, nil }

func (f *fakeData) Convert(amount float64, from, to string, asOf time.Time) (float64, bool) {
	f.mu.Lock()
	f.convertDates = append(f.convertDates, asOf)
	f.mu.Unlock()
	if rates, ok := f.fxRates[from+"/"+to]; ok {
		if rate, ok := rates[asOf]; ok {
			return amount * rate, true
		}
	}
	return amount, false
}

func newTestEngine(f *fakeData, today time.Time) *Engine {
	e := NewEngine(zap.NewNop(), "EUR", Dependencies{
		Ledger:  f,
		Quotes:  f,
		Actions: f,
		FX:      f,
		Cash:    f,
		Catalog: f,
	})
	e.now = func() time.Time { return today }
	return e
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func buy(productID uint, d time.Time, quantity, price float64) TransactionRecord {
	return TransactionRecord{ProductID: productID, Timestamp: d, Date: d, Quantity: quantity, Price: price}
}

func TestHistoricalValue_WeekendExclusion(t *testing.T) {
	// 2024-01-01 is a Monday; the 7-day window through Sunday spans one weekend.
	monday := day(2024, time.January, 1)
	quotes := make(map[time.Time]float64)
	for i := 0; i < 7; i++ {
		quotes[monday.AddDate(0, 0, i)] = 2.0
	}
	f := &fakeData{
		products: []ProductInfo{{ID: 1, Symbol: "ASML", Currency: "EUR", Tradable: true}},
		txns:     map[uint][]TransactionRecord{1: {buy(1, monday, 10, 2)}},
		quotes:   map[uint]map[time.Time]float64{1: quotes},
		cash:     map[time.Time]float64{},
	}
	engine := newTestEngine(f, day(2024, time.January, 7))

	series, err := engine.HistoricalValue()

	assert.NoError(t, err)
	assert.Len(t, series, 5, "Saturday and Sunday must not produce entries")
	for _, dv := range series {
		assert.Equal(t, 20.0, dv.Value)
		wd := dv.Date.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
	}
}

func TestHistoricalValue_CashCarryForward(t *testing.T) {
	// Cash is only known on Jan 1 and Jan 10; a valuation on Jan 5 must use
	// the Jan 1 balance.
	friday := day(2024, time.January, 5)
	f := &fakeData{
		products: []ProductInfo{{ID: 1, Symbol: "ASML", Currency: "EUR", Tradable: true}},
		txns:     map[uint][]TransactionRecord{1: {buy(1, friday, 1, 1)}},
		quotes:   map[uint]map[time.Time]float64{1: {friday: 1.0}},
		cash: map[time.Time]float64{
			day(2024, time.January, 1):  100,
			day(2024, time.January, 10): 200,
		},
	}
	engine := newTestEngine(f, friday)

	series, err := engine.HistoricalValue()

	assert.NoError(t, err)
	assert.Len(t, series, 1)
	assert.Equal(t, friday, series[0].Date)
	assert.Equal(t, 101.0, series[0].Value)
}

func TestHistoricalValue_PointInTimeFX(t *testing.T) {
	// Conversion must use each value's own date; the series must not depend
	// on when the valuation runs.
	monday := day(2024, time.January, 1)
	tuesday := day(2024, time.January, 2)
	f := &fakeData{
		products: []ProductInfo{{ID: 1, Symbol: "AAPL", Currency: "USD", Tradable: true}},
		txns:     map[uint][]TransactionRecord{1: {buy(1, monday, 10, 100)}},
		quotes:   map[uint]map[time.Time]float64{1: {monday: 100, tuesday: 100}},
		cash:     map[time.Time]float64{},
		fxRates: map[string]map[time.Time]float64{
			"USD/EUR": {monday: 0.5, tuesday: 0.8},
		},
	}

	first, err := newTestEngine(f, day(2024, time.January, 2)).HistoricalValue()
	assert.NoError(t, err)
	second, err := newTestEngine(f, day(2024, time.June, 15)).HistoricalValue()
	assert.NoError(t, err)

	assert.Equal(t, []DailyValue{
		{Date: monday, Value: 500},
		{Date: tuesday, Value: 800},
	}, first)
	// The historical part of the series is identical regardless of "today".
	assert.Equal(t, first, second[:2])

	for _, d := range f.convertDates {
		assert.True(t, d.Equal(monday) || d.Equal(tuesday),
			"conversion used an unexpected as-of date: %s", d)
	}
}

func TestHistoricalValue_MissingQuoteSkipsDateOnly(t *testing.T) {
	monday := day(2024, time.January, 1)
	tuesday := day(2024, time.January, 2)
	wednesday := day(2024, time.January, 3)
	f := &fakeData{
		products: []ProductInfo{{ID: 1, Symbol: "ASML", Currency: "EUR", Tradable: true}},
		txns:     map[uint][]TransactionRecord{1: {buy(1, monday, 1, 10)}},
		quotes: map[uint]map[time.Time]float64{1: {
			monday:    10,
			wednesday: 12,
			// Tuesday's quote is missing.
		}},
		cash: map[time.Time]float64{},
	}
	engine := newTestEngine(f, wednesday)

	series, err := engine.HistoricalValue()

	assert.NoError(t, err)
	assert.Equal(t, []DailyValue{
		{Date: monday, Value: 10},
		{Date: wednesday, Value: 12},
	}, series)
	_ = tuesday
}

func TestHistoricalValue_NonTradableExcluded(t *testing.T) {
	monday := day(2024, time.January, 1)
	f := &fakeData{
		products: []ProductInfo{
			{ID: 1, Symbol: "ASML", Currency: "EUR", Tradable: true},
			{ID: 2, Symbol: "OLD-ASML", Currency: "EUR", Tradable: false},
		},
		txns: map[uint][]TransactionRecord{
			1: {buy(1, monday, 1, 10)},
			2: {buy(2, monday, 99, 10)},
		},
		quotes: map[uint]map[time.Time]float64{
			1: {monday: 10},
			2: {monday: 10},
		},
		cash: map[time.Time]float64{},
	}
	engine := newTestEngine(f, monday)

	series, err := engine.HistoricalValue()

	assert.NoError(t, err)
	assert.Equal(t, []DailyValue{{Date: monday, Value: 10}}, series)
}

func TestHistoricalValue_RoundsToThreeDecimals(t *testing.T) {
	monday := day(2024, time.January, 1)
	f := &fakeData{
		products: []ProductInfo{{ID: 1, Symbol: "ASML", Currency: "EUR", Tradable: true}},
		txns:     map[uint][]TransactionRecord{1: {buy(1, monday, 3, 0)}},
		quotes:   map[uint]map[time.Time]float64{1: {monday: 1.0 / 3.0}},
		cash:     map[time.Time]float64{},
	}
	engine := newTestEngine(f, monday)

	series, err := engine.HistoricalValue()

	assert.NoError(t, err)
	assert.Len(t, series, 1)
	assert.Equal(t, 1.0, series[0].Value)
}
