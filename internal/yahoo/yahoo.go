// Package yahoo is the price source: a small client for the Yahoo Finance
// chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
)

// DefaultBaseURL is the public chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// FinanceClient provides methods for fetching price data from Yahoo Finance.
// It wraps an HTTP client and a base URL so tests can point it at a local server.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewFinanceClient creates a new Yahoo Finance client.
//
// Parameters:
//   - baseURL: API host, DefaultBaseURL when empty
//   - timeout: per-request timeout applied by the underlying http.Client
func NewFinanceClient(baseURL string, timeout time.Duration) *FinanceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinanceClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchPrice retrieves the current regular-market price, day range and volume
// for ticker.
//
// Returns:
//   - Price: the price attributes; Current is always set on success
//   - error: on transport failure, non-200 status, a chart error, or a
//     response without a regular-market price
func (c *FinanceClient) FetchPrice(ctx context.Context, ticker string) (Price, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.baseURL, url.PathEscape(ticker))

	response, err := c.queryYahoo(ctx, endpoint)
	if err != nil {
		return Price{}, fmt.Errorf("yahoo price for %s: %w", ticker, err)
	}
	if len(response.Chart.Result) == 0 {
		return Price{}, fmt.Errorf("no results returned for symbol %s", ticker)
	}

	meta := response.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return Price{}, fmt.Errorf("no price data returned for symbol %s", ticker)
	}

	return Price{
		Symbol:   meta.Symbol,
		Currency: meta.Currency,
		Current:  *meta.RegularMarketPrice,
		DayHigh:  meta.RegularMarketDayHigh,
		DayLow:   meta.RegularMarketDayLow,
		Volume:   meta.RegularMarketVolume,
	}, nil
}

// queryYahoo executes a GET against the chart API and decodes the response.
// A browser User-Agent is sent; Yahoo rejects the default Go client string.
func (c *FinanceClient) queryYahoo(ctx context.Context, endpoint string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("%w: %d", apperrors.ErrUpstreamStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s", response.Chart.Error.Description)
	}

	return response, nil
}
