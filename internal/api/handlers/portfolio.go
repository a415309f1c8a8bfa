package handlers

import (
	"net/http"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// PortfolioHandler handles HTTP requests for the loaded portfolio.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// AutoRefreshRequest toggles periodic refreshing.
type AutoRefreshRequest struct {
	Enabled *bool `json:"enabled"`
}

// Portfolio handles GET requests for the current portfolio snapshot.
// An empty portfolio is returned when nothing has been uploaded yet.
//
// Endpoint: GET /api/portfolio
// Response: 200 OK with service.PortfolioView
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.portfolioService.GetPortfolio())
}

// Refresh handles POST requests that refresh market data for every holding
// immediately. Tickers that fail keep their previous values and are reported
// in the status error.
//
// Endpoint: POST /api/portfolio/refresh
// Response: 200 OK with service.PortfolioView
// Error: 404 Not Found if no portfolio has been uploaded
func (h *PortfolioHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	view, err := h.portfolioService.Refresh(r.Context())
	if err != nil {
		respondServiceError(w, err, "failed to refresh portfolio")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// AutoRefresh handles PUT requests that turn periodic refreshing on or off.
//
// Endpoint: PUT /api/portfolio/auto-refresh
// Request body: {"enabled": true}
// Response: 200 OK with session.Status
// Error: 400 Bad Request for a malformed body or missing field
func (h *PortfolioHandler) AutoRefresh(w http.ResponseWriter, r *http.Request) {
	var req AutoRefreshRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateAutoRefresh(req.Enabled); err != nil {
		respondServiceError(w, err, "")
		return
	}

	respondJSON(w, http.StatusOK, h.portfolioService.SetAutoRefresh(*req.Enabled))
}
