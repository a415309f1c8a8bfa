// Package google is the valuation-metrics source. It scrapes the Google Finance
// quote page for the P/E ratio and the most recent earnings period.
package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
)

// DefaultBaseURL is the public Google Finance host.
const DefaultBaseURL = "https://www.google.com/finance"

// Page selectors of the quote page's key-statistics panel.
const (
	rowSelector   = ".gyFHrc"
	labelSelector = ".mfs7Fc"
	valueSelector = ".P6K39c"
	peLabel       = "P/E ratio"
)

// Metrics holds the scraped valuation attributes. PERatio is nil when the page
// has no usable value; LastEarnings is empty when no earnings period was found.
type Metrics struct {
	PERatio      *float64
	LastEarnings string
}

// FinanceClient fetches quote pages from Google Finance.
type FinanceClient struct {
	httpClient      *http.Client
	baseURL         string
	defaultExchange string
}

// NewFinanceClient creates a scraper. Tickers without an exchange suffix get
// ":"+defaultExchange appended.
func NewFinanceClient(baseURL, defaultExchange string, timeout time.Duration) *FinanceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinanceClient{
		httpClient:      &http.Client{Timeout: timeout},
		baseURL:         strings.TrimRight(baseURL, "/"),
		defaultExchange: defaultExchange,
	}
}

// Symbol returns the page symbol for ticker.
func (c *FinanceClient) Symbol(ticker string) string {
	if strings.Contains(ticker, ":") || c.defaultExchange == "" {
		return ticker
	}
	return ticker + ":" + c.defaultExchange
}

// FetchMetrics downloads and scrapes the quote page for ticker.
func (c *FinanceClient) FetchMetrics(ctx context.Context, ticker string) (Metrics, error) {
	endpoint := fmt.Sprintf("%s/quote/%s", c.baseURL, url.PathEscape(c.Symbol(ticker)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Metrics{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Metrics{}, fmt.Errorf("google metrics for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metrics{}, fmt.Errorf("google metrics for %s: %w: %d", ticker, apperrors.ErrUpstreamStatus, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Metrics{}, fmt.Errorf("google metrics for %s: %w", ticker, err)
	}

	return Scrape(doc), nil
}

// Scrape extracts the metrics from a parsed quote page.
func Scrape(doc *goquery.Document) Metrics {
	var m Metrics

	doc.Find(rowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(row.Find(labelSelector).Text(), peLabel) {
			return true
		}
		if pe, ok := parseRatio(row.Find(valueSelector).First().Text()); ok {
			m.PERatio = &pe
		}
		return false
	})

	doc.Find(valueSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if isEarningsPeriod(text) {
			m.LastEarnings = text
		}
	})

	return m
}

// isEarningsPeriod matches values such as "Q3 2024" or "Q1 FY25/26".
func isEarningsPeriod(text string) bool {
	return strings.Contains(text, "Q") && (strings.Contains(text, "202") || strings.Contains(text, "/"))
}

// parseRatio parses a displayed ratio such as "1,234.56". Dashes and other
// placeholders are rejected.
func parseRatio(text string) (float64, bool) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, false
	}
	return d.Round(2).InexactFloat64(), true
}
