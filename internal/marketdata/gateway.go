// Package marketdata provides per-ticker quotes: a gateway merging a price
// source with a valuation-metrics source, and a rate-limited cache in front of it.
package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/google"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/yahoo"
)

// PriceSource provides price attributes for a ticker.
type PriceSource interface {
	FetchPrice(ctx context.Context, ticker string) (yahoo.Price, error)
}

// MetricsSource provides valuation metrics for a ticker.
type MetricsSource interface {
	FetchMetrics(ctx context.Context, ticker string) (google.Metrics, error)
}

// Fetcher returns a quote for a ticker. The gateway and the cache both satisfy it.
type Fetcher interface {
	FetchQuote(ctx context.Context, ticker string) (model.Quote, error)
}

// Gateway merges a price source and a metrics source into one quote. A failing
// source is replaced by synthetic data, so FetchQuote only fails when ctx is done.
type Gateway struct {
	prices    PriceSource
	metrics   MetricsSource
	synthetic *Synthetic
	now       func() time.Time
	log       zerolog.Logger
}

// NewGateway creates a gateway. A nil synthetic generator gets a randomly seeded one.
func NewGateway(prices PriceSource, metrics MetricsSource, synthetic *Synthetic, log zerolog.Logger) *Gateway {
	if synthetic == nil {
		synthetic = NewSynthetic(nil, nil)
	}
	return &Gateway{
		prices:    prices,
		metrics:   metrics,
		synthetic: synthetic,
		now:       time.Now,
		log:       log.With().Str("component", "gateway").Logger(),
	}
}

// FetchQuote runs both sub-fetches concurrently and merges the results with
// metrics laid over price.
func (g *Gateway) FetchQuote(ctx context.Context, ticker string) (model.Quote, error) {
	var (
		price           yahoo.Price
		metrics         google.Metrics
		priceErr, mtErr error
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		price, priceErr = g.prices.FetchPrice(egCtx, ticker)
		return nil
	})
	eg.Go(func() error {
		metrics, mtErr = g.metrics.FetchMetrics(egCtx, ticker)
		return nil
	})
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return model.Quote{}, err
	}

	quote := model.Quote{Ticker: ticker, FetchedAt: g.now()}

	if priceErr != nil {
		g.log.Warn().Err(priceErr).Str("ticker", ticker).Msg("price source failed, using synthetic price")
		price = g.synthetic.Price(ticker)
		quote.PriceSynthetic = true
	}
	if mtErr != nil {
		g.log.Warn().Err(mtErr).Str("ticker", ticker).Msg("metrics source failed, using synthetic metrics")
		metrics = g.synthetic.Metrics()
		quote.MetricsSynthetic = true
	}

	current := price.Current
	quote = quote.Merge(model.Quote{
		CurrentPrice: &current,
		DayHigh:      price.DayHigh,
		DayLow:       price.DayLow,
		Volume:       price.Volume,
	})
	quote = quote.Merge(model.Quote{
		PERatio:      metrics.PERatio,
		LastEarnings: metrics.LastEarnings,
	})

	return quote, nil
}
