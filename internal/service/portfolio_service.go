package service

import (
	"context"
	"errors"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/session"
)

// PortfolioView is the dashboard payload: the current snapshot plus its
// refresh status.
type PortfolioView struct {
	model.PortfolioSnapshot
	Status session.Status `json:"status"`
}

// PortfolioService exposes the loaded portfolio and its refresh controls.
type PortfolioService struct {
	session *session.Session
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(sess *session.Session) *PortfolioService {
	return &PortfolioService{session: sess}
}

// GetPortfolio returns the current snapshot and status.
func (s *PortfolioService) GetPortfolio() PortfolioView {
	return s.view()
}

// Refresh runs a refresh round now. Per-ticker failures are reported in the
// view's status rather than as an error.
//
// Returns apperrors.ErrNoHoldings if no portfolio has been loaded.
func (s *PortfolioService) Refresh(ctx context.Context) (PortfolioView, error) {
	if len(s.session.Holdings()) == 0 {
		return PortfolioView{}, apperrors.ErrNoHoldings
	}

	err := s.session.Refresh(ctx)
	var roundErr *session.RoundError
	if err != nil && !errors.As(err, &roundErr) {
		return PortfolioView{}, err
	}
	return s.view(), nil
}

// SetAutoRefresh turns periodic refreshing on or off.
func (s *PortfolioService) SetAutoRefresh(enabled bool) session.Status {
	s.session.SetAutoRefresh(enabled)
	return s.session.Status()
}

func (s *PortfolioService) view() PortfolioView {
	return PortfolioView{
		PortfolioSnapshot: s.session.Snapshot(),
		Status:            s.session.Status(),
	}
}
