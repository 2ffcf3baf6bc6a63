package refresh

import (
	"time"

	"portfolio-dashboard-go/internal/valuation"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const cacheSize = 64 // accounts; evicting beyond this is harmless

// Cache holds computed valuation results per account between refreshes.
// Entries expire after the configured TTL; stale results are acceptable and
// are never recomputed inline by the valuation engine itself.
type Cache struct {
	portfolios *expirable.LRU[uint, []valuation.PortfolioEntry]
	totals     *expirable.LRU[uint, valuation.TotalSummary]
	histories  *expirable.LRU[uint, []valuation.DailyValue]
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		portfolios: expirable.NewLRU[uint, []valuation.PortfolioEntry](cacheSize, nil, ttl),
		totals:     expirable.NewLRU[uint, valuation.TotalSummary](cacheSize, nil, ttl),
		histories:  expirable.NewLRU[uint, []valuation.DailyValue](cacheSize, nil, ttl),
	}
}

func (c *Cache) Portfolio(accountID uint) ([]valuation.PortfolioEntry, bool) {
	return c.portfolios.Get(accountID)
}

func (c *Cache) SetPortfolio(accountID uint, entries []valuation.PortfolioEntry) {
	c.portfolios.Add(accountID, entries)
}

func (c *Cache) Total(accountID uint) (valuation.TotalSummary, bool) {
	return c.totals.Get(accountID)
}

func (c *Cache) SetTotal(accountID uint, total valuation.TotalSummary) {
	c.totals.Add(accountID, total)
}

func (c *Cache) History(accountID uint) ([]valuation.DailyValue, bool) {
	return c.histories.Get(accountID)
}

func (c *Cache) SetHistory(accountID uint, series []valuation.DailyValue) {
	c.histories.Add(accountID, series)
}

// Invalidate drops every cached result for one account, typically after a
// fresh import landed.
func (c *Cache) Invalidate(accountID uint) {
	c.portfolios.Remove(accountID)
	c.totals.Remove(accountID)
	c.histories.Remove(accountID)
}
