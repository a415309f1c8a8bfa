package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
)

// MarketHandler exposes single-ticker quotes and the quote cache.
type MarketHandler struct {
	marketService *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketService *service.MarketService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
	}
}

// Quote handles GET requests for a single ticker. Served from the quote cache
// when fresh; otherwise queued behind earlier upstream requests.
//
// Endpoint: GET /api/market/quote/{ticker}
// Response: 200 OK with model.Quote
// Error: 400 Bad Request for a malformed ticker
// Error: 503 Service Unavailable if the request was cancelled or the cache closed
func (h *MarketHandler) Quote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.marketService.GetQuote(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		respondServiceError(w, err, "failed to fetch quote")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// CacheStats handles GET requests for the quote cache contents.
//
// Endpoint: GET /api/market/cache
// Response: 200 OK with model.CacheStats
func (h *MarketHandler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.marketService.CacheStats())
}

// ClearCache handles DELETE requests that drop every cached quote.
//
// Endpoint: DELETE /api/market/cache
// Response: 204 No Content
func (h *MarketHandler) ClearCache(w http.ResponseWriter, _ *http.Request) {
	h.marketService.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}
