package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/google"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/yahoo"
)

// MockPriceSource is a mock implementation of the price source for testing.
// It returns MockPrice for every ticker unless MockError is set.
type MockPriceSource struct {
	mu sync.Mutex
	// MockPrice is the current price returned for every ticker
	MockPrice float64
	// MockError is the error to return from FetchPrice
	MockError error
	// QueryCount tracks how many times FetchPrice was called
	QueryCount int
}

// NewMockPriceSource creates a price source that answers with price.
func NewMockPriceSource(price float64) *MockPriceSource {
	return &MockPriceSource{MockPrice: price}
}

// WithError configures the mock to return the specified error.
func (m *MockPriceSource) WithError(err error) *MockPriceSource {
	m.MockError = err
	return m
}

// FetchPrice returns the configured price or error.
func (m *MockPriceSource) FetchPrice(_ context.Context, ticker string) (yahoo.Price, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	if m.MockError != nil {
		return yahoo.Price{}, m.MockError
	}
	high := m.MockPrice * 1.01
	low := m.MockPrice * 0.99
	volume := int64(1000)
	return yahoo.Price{Symbol: ticker, Current: m.MockPrice, DayHigh: &high, DayLow: &low, Volume: &volume}, nil
}

// MockMetricsSource is a mock implementation of the metrics source for testing.
type MockMetricsSource struct {
	mu sync.Mutex
	// MockMetrics is returned for every ticker
	MockMetrics google.Metrics
	// MockError is the error to return from FetchMetrics
	MockError error
	// QueryCount tracks how many times FetchMetrics was called
	QueryCount int
}

// NewMockMetricsSource creates a metrics source answering with pe and earnings.
func NewMockMetricsSource(pe float64, earnings string) *MockMetricsSource {
	return &MockMetricsSource{MockMetrics: google.Metrics{PERatio: &pe, LastEarnings: earnings}}
}

// WithError configures the mock to return the specified error.
func (m *MockMetricsSource) WithError(err error) *MockMetricsSource {
	m.MockError = err
	return m
}

// FetchMetrics returns the configured metrics or error.
func (m *MockMetricsSource) FetchMetrics(_ context.Context, _ string) (google.Metrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	if m.MockError != nil {
		return google.Metrics{}, m.MockError
	}
	return m.MockMetrics, nil
}

// QuoteCall records one FetchQuote invocation.
type QuoteCall struct {
	Ticker string
	At     time.Time
}

// MockQuoteFetcher is a mock quote fetcher with per-ticker prices and errors.
// When Gate is non-nil every call blocks until a value is received from it or
// the context is done.
type MockQuoteFetcher struct {
	mu     sync.Mutex
	prices map[string]float64
	errors map[string]error
	calls  []QuoteCall

	// Gate, when set, holds each call until it can receive from the channel.
	Gate chan struct{}
	// Started, when set, receives the ticker of each call as it begins.
	Started chan string
}

// NewMockQuoteFetcher creates a fetcher that knows no tickers yet. Unknown
// tickers are answered with a price of 100.
func NewMockQuoteFetcher() *MockQuoteFetcher {
	return &MockQuoteFetcher{
		prices: make(map[string]float64),
		errors: make(map[string]error),
	}
}

// WithPrice sets the price returned for ticker.
func (m *MockQuoteFetcher) WithPrice(ticker string, price float64) *MockQuoteFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[ticker] = price
	return m
}

// WithError makes every call for ticker fail with err.
func (m *MockQuoteFetcher) WithError(ticker string, err error) *MockQuoteFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[ticker] = err
	return m
}

// FetchQuote records the call and returns the configured quote or error.
func (m *MockQuoteFetcher) FetchQuote(ctx context.Context, ticker string) (model.Quote, error) {
	m.mu.Lock()
	m.calls = append(m.calls, QuoteCall{Ticker: ticker, At: time.Now()})
	price, ok := m.prices[ticker]
	err := m.errors[ticker]
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- ticker
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return model.Quote{}, ctx.Err()
		}
	}

	if err != nil {
		return model.Quote{}, err
	}
	if !ok {
		price = 100
	}
	pe := 20.0
	return model.Quote{
		Ticker:       ticker,
		CurrentPrice: &price,
		PERatio:      &pe,
		LastEarnings: "Q2 2024",
		FetchedAt:    time.Now(),
	}, nil
}

// Calls returns a copy of the recorded calls in order.
func (m *MockQuoteFetcher) Calls() []QuoteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]QuoteCall(nil), m.calls...)
}

// CallCount returns the number of calls for ticker, or all calls when ticker is empty.
func (m *MockQuoteFetcher) CallCount(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticker == "" {
		return len(m.calls)
	}
	n := 0
	for _, c := range m.calls {
		if c.Ticker == ticker {
			n++
		}
	}
	return n
}
