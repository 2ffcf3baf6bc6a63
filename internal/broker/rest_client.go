package broker

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"portfolio-dashboard-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const dateParamLayout = "2006-01-02"

// Client defines the subset of a broker's data API this service consumes.
// It reads periodically-exported snapshots; it never places orders.
type Client interface {
	GetProducts() ([]Product, error)
	GetTransactions(since time.Time) ([]Transaction, error)
	GetCashMovements(since time.Time) ([]CashMovement, error)
	GetQuotes(productExternalID string, from time.Time) ([]Quote, error)
	GetSplits(symbol string) ([]Split, error)
	GetFxRates(from, to string, since time.Time) ([]FxRate, error)
}

// Product is an instrument as reported by the broker.
type Product struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	ISIN     string `json:"isin"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Exchange string `json:"exchange"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Country  string `json:"country"`
	Tradable bool   `json:"tradable"`
}

// Transaction is one executed order. Quantity is signed: positive buys.
type Transaction struct {
	OrderID   string    `json:"orderId"`
	ProductID string    `json:"productId"`
	Timestamp time.Time `json:"timestamp"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Fees      float64   `json:"fees"`
	Currency  string    `json:"currency"`
}

// CashMovement is a deposit, withdrawal, dividend or fee.
type CashMovement struct {
	Reference string    `json:"reference"`
	Date      time.Time `json:"date"`
	Kind      string    `json:"kind"`
	Amount    float64   `json:"amount"`
}

// Quote is one daily closing price.
type Quote struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Split is one corporate-action split event.
type Split struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Ratio  float64   `json:"ratio"`
}

// FxRate is one historical exchange rate.
type FxRate struct {
	Date time.Time `json:"date"`
	From string    `json:"from"`
	To   string    `json:"to"`
	Rate float64   `json:"rate"`
}

// RestClient is a rate-limited, retrying client for a broker data API.
// It implements the Client interface.
type RestClient struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RestClient implements the interface
var _ Client = (*RestClient)(nil)

const (
	defaultRateLimit      = 10 // requests per second
	defaultRateLimitBurst = 5
)

// NewRestClient creates a client for one configured broker account.
func NewRestClient(cfg *config.Account, logger *zap.Logger) *RestClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json")

	// rate.Limit is requests per second. An unset limit must not mean "never",
	// so fall back to a sane default.
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = defaultRateLimit
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = defaultRateLimitBurst
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return &RestClient{
		client:  client,
		apiKey:  cfg.APIKey,
		logger:  logger.With(zap.String("account", cfg.Name)),
		limiter: limiter,
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	req.SetHeader("Authorization", "Bearer "+c.apiKey)

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetProducts fetches the account's product catalog.
func (c *RestClient) GetProducts() ([]Product, error) {
	var products []Product
	req := c.client.R().SetResult(&products)

	_, err := c.doRequest(context.Background(), "GET", "/products", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// GetTransactions fetches executed transactions since a date (zero = all).
func (c *RestClient) GetTransactions(since time.Time) ([]Transaction, error) {
	var txns []Transaction
	req := c.client.R().SetResult(&txns)
	if !since.IsZero() {
		req.SetQueryParam("since", since.Format(dateParamLayout))
	}

	_, err := c.doRequest(context.Background(), "GET", "/transactions", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return txns, nil
}

// GetCashMovements fetches deposits/withdrawals/dividends since a date (zero = all).
func (c *RestClient) GetCashMovements(since time.Time) ([]CashMovement, error) {
	var movements []CashMovement
	req := c.client.R().SetResult(&movements)
	if !since.IsZero() {
		req.SetQueryParam("since", since.Format(dateParamLayout))
	}

	_, err := c.doRequest(context.Background(), "GET", "/cash-movements", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get cash movements: %w", err)
	}
	return movements, nil
}

// GetQuotes fetches daily closes for one product since a date (zero = all).
func (c *RestClient) GetQuotes(productExternalID string, from time.Time) ([]Quote, error) {
	var quotes []Quote
	req := c.client.R().SetResult(&quotes)
	if !from.IsZero() {
		req.SetQueryParam("from", from.Format(dateParamLayout))
	}

	url := fmt.Sprintf("/products/%s/quotes", productExternalID)
	_, err := c.doRequest(context.Background(), "GET", url, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get quotes for product %s: %w", productExternalID, err)
	}
	return quotes, nil
}

// GetSplits fetches the split events recorded for a traded symbol.
func (c *RestClient) GetSplits(symbol string) ([]Split, error) {
	var splits []Split
	req := c.client.R().SetResult(&splits)

	url := fmt.Sprintf("/splits/%s", symbol)
	_, err := c.doRequest(context.Background(), "GET", url, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits for %s: %w", symbol, err)
	}
	return splits, nil
}

// GetFxRates fetches historical rates for a currency pair since a date (zero = all).
func (c *RestClient) GetFxRates(from, to string, since time.Time) ([]FxRate, error) {
	var rates []FxRate
	req := c.client.R().
		SetResult(&rates).
		SetQueryParam("from", from).
		SetQueryParam("to", to)
	if !since.IsZero() {
		req.SetQueryParam("since", since.Format(dateParamLayout))
	}

	_, err := c.doRequest(context.Background(), "GET", "/fx-rates", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get fx rates %s/%s: %w", from, to, err)
	}
	return rates, nil
}
