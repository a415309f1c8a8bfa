package service

import (
	"context"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// MarketService serves single quotes and cache diagnostics.
type MarketService struct {
	cache *marketdata.Cache
}

// NewMarketService creates a new MarketService.
func NewMarketService(cache *marketdata.Cache) *MarketService {
	return &MarketService{cache: cache}
}

// GetQuote returns the quote for ticker through the rate-limited cache.
func (s *MarketService) GetQuote(ctx context.Context, ticker string) (model.Quote, error) {
	ticker, err := validation.ValidateTicker(ticker)
	if err != nil {
		return model.Quote{}, err
	}
	return s.cache.Get(ctx, ticker)
}

// CacheStats reports the quote cache contents.
func (s *MarketService) CacheStats() model.CacheStats {
	return s.cache.Stats()
}

// ClearCache drops every cached quote.
func (s *MarketService) ClearCache() {
	s.cache.Clear()
}
