package broker

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"portfolio-dashboard-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(serverURL string) *RestClient {
	return NewRestClient(&config.Account{
		Name:           "test",
		BaseURL:        serverURL,
		APIKey:         "test-key",
		RateLimit:      1000,
		RateLimitBurst: 1000,
	}, zap.NewNop())
}

func TestGetProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "ext-1", "symbol": "AAPL", "isin": "US0378331005", "name": "Apple Inc",
			 "currency": "USD", "sector": "Technology", "tradable": true},
			{"id": "ext-2", "symbol": "OLD", "tradable": false}
		]`))
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).GetProducts()

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "ext-1", products[0].ID)
	assert.Equal(t, "AAPL", products[0].Symbol)
	assert.True(t, products[0].Tradable)
	assert.False(t, products[1].Tradable)
}

func TestGetTransactions_SinceParam(t *testing.T) {
	var since atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		since.Store(r.URL.Query().Get("since"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"orderId": "order-1", "productId": "ext-1",
			 "timestamp": "2024-01-02T14:30:00Z", "quantity": -4, "price": 150.5}
		]`))
	}))
	defer server.Close()
	client := newTestClient(server.URL)

	txns, err := client.GetTransactions(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", since.Load())
	require.Len(t, txns, 1)
	assert.Equal(t, "order-1", txns[0].OrderID)
	assert.Equal(t, -4.0, txns[0].Quantity)

	// A zero since means a full import and sends no parameter.
	_, err = client.GetTransactions(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "", since.Load())
}

func TestGetQuotes_ProductPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/ext-1/quotes", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("from"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"date": "2024-01-01T00:00:00Z", "close": 100.5}]`))
	}))
	defer server.Close()

	quotes, err := newTestClient(server.URL).GetQuotes("ext-1", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 100.5, quotes[0].Close)
}

func TestGetFxRates_PairParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fx-rates", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("from"))
		assert.Equal(t, "EUR", r.URL.Query().Get("to"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"date": "2024-01-01T00:00:00Z", "from": "USD", "to": "EUR", "rate": 0.9}]`))
	}))
	defer server.Close()

	rates, err := newTestClient(server.URL).GetFxRates("USD", "EUR", time.Time{})

	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, 0.9, rates[0].Rate)
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).GetProducts()

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoRequest_HonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	start := time.Now()
	_, err := newTestClient(server.URL).GetProducts()

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestDoRequest_ClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetProducts()

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
