// Package session holds the currently loaded portfolio and keeps its market
// fields fresh.
//
// A Session owns one holding list at a time. Loading a new list bumps the
// generation counter; a refresh round captures the generation when it starts
// and its result is dropped if the generation changed before it finished.
package session

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/portfolio"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/refresh"
)

// NoEarnings is shown when no source ever reported an earnings period.
const NoEarnings = "N/A"

// RoundError reports the tickers whose quotes could not be fetched in one
// refresh round. The holdings of those tickers keep their previous values.
type RoundError struct {
	Failed []string
	Total  int
}

func (e *RoundError) Error() string {
	return fmt.Sprintf("failed to refresh %d of %d tickers: %s", len(e.Failed), e.Total, strings.Join(e.Failed, ", "))
}

// Status describes the refresh state for the dashboard.
type Status struct {
	Loading      bool       `json:"isLoading"`
	Error        string     `json:"error,omitempty"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
	NextRefresh  *time.Time `json:"nextRefresh,omitempty"`
	Countdown    int        `json:"countdown"`
	State        string     `json:"state"`
	AutoRefresh  bool       `json:"autoRefresh"`
	Interval     float64    `json:"intervalSeconds"`
	Generation   uint64     `json:"generation"`
	HoldingCount int        `json:"holdingCount"`
}

// Options configures a Session.
type Options struct {
	Interval    time.Duration
	AutoRefresh bool
	Now         func() time.Time
}

// Session is safe for concurrent use.
type Session struct {
	fetcher  marketdata.Fetcher
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu          sync.RWMutex
	snapshot    model.PortfolioSnapshot
	generation  uint64
	scheduler   *refresh.Scheduler
	autoRefresh bool
	refreshing  int
	lastErr     string
	lastUpdated time.Time
	listeners   []func(model.PortfolioSnapshot)
	closed      bool
}

// New creates an empty session that fetches quotes through fetcher.
func New(fetcher marketdata.Fetcher, opts Options, log zerolog.Logger) *Session {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		fetcher:     fetcher,
		interval:    opts.Interval,
		now:         opts.Now,
		log:         log.With().Str("component", "session").Logger(),
		snapshot:    portfolio.Aggregate(nil),
		autoRefresh: opts.AutoRefresh,
	}
}

// Replace loads a new holding list. Any refresh round of the previous list is
// cancelled and its result discarded. When auto refresh is on and the list is
// not empty a refresh starts immediately and then repeats every interval.
func (s *Session) Replace(holdings []model.Holding) {
	s.mu.Lock()
	s.generation++
	s.snapshot = portfolio.Aggregate(holdings)
	s.lastErr = ""
	s.lastUpdated = time.Time{}
	old := s.scheduler
	s.scheduler = nil
	if s.autoRefresh && !s.closed {
		s.startLocked()
	}
	snap := s.snapshot
	gen := s.generation
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	s.log.Info().Uint64("generation", gen).Int("holdings", len(holdings)).Msg("portfolio loaded")
	s.notify(snap)
}

// Snapshot returns the current portfolio snapshot.
func (s *Session) Snapshot() model.PortfolioSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Holdings returns a copy of the current holdings.
func (s *Session) Holdings() []model.Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Holding(nil), s.snapshot.Holdings...)
}

// Status returns the refresh state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Loading:      s.refreshing > 0,
		Error:        s.lastErr,
		State:        refresh.StateIdle.String(),
		AutoRefresh:  s.autoRefresh,
		Interval:     s.interval.Seconds(),
		Generation:   s.generation,
		HoldingCount: len(s.snapshot.Holdings),
	}
	if !s.lastUpdated.IsZero() {
		t := s.lastUpdated
		st.LastUpdated = &t
	}
	if s.scheduler != nil {
		st.State = s.scheduler.State().String()
		if next := s.scheduler.NextRun(); !next.IsZero() {
			st.NextRefresh = &next
			if d := next.Sub(s.now()); d > 0 {
				st.Countdown = int(d.Round(time.Second).Seconds())
			}
		}
	}
	return st
}

// SetAutoRefresh turns periodic refreshing on or off.
func (s *Session) SetAutoRefresh(enabled bool) {
	s.mu.Lock()
	if s.autoRefresh == enabled {
		s.mu.Unlock()
		return
	}
	s.autoRefresh = enabled
	var old *refresh.Scheduler
	if enabled {
		if !s.closed {
			s.startLocked()
		}
	} else {
		old = s.scheduler
		s.scheduler = nil
	}
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	s.log.Info().Bool("enabled", enabled).Msg("auto refresh toggled")
}

// OnUpdate registers fn to be called with every committed snapshot.
func (s *Session) OnUpdate(fn func(model.PortfolioSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Close stops periodic refreshing. The session keeps serving its snapshot.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	old := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}
}

// Refresh fetches quotes for every distinct ticker of the current holdings
// and merges them in. Tickers that fail keep their previous values and are
// reported in a *RoundError. If the holdings were replaced while the round
// was running, the result is discarded and nil is returned.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	gen := s.generation
	holdings := append([]model.Holding(nil), s.snapshot.Holdings...)
	s.refreshing++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing--
		s.mu.Unlock()
	}()

	tickers := distinctTickers(holdings)
	if len(tickers) == 0 {
		return nil
	}

	var (
		qmu    sync.Mutex
		quotes = make(map[string]model.Quote, len(tickers))
		failed []string
	)
	var eg errgroup.Group
	for _, ticker := range tickers {
		eg.Go(func() error {
			q, err := s.fetcher.FetchQuote(ctx, ticker)
			qmu.Lock()
			defer qmu.Unlock()
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn().Err(err).Str("ticker", ticker).Msg("quote refresh failed")
				}
				failed = append(failed, ticker)
				return nil
			}
			quotes[ticker] = q
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	merged := make([]model.Holding, len(holdings))
	for i, h := range holdings {
		if q, ok := quotes[h.Ticker]; ok {
			h = Merge(h, q)
		}
		merged[i] = h
	}

	var roundErr error
	if len(failed) > 0 {
		sort.Strings(failed)
		roundErr = &RoundError{Failed: failed, Total: len(tickers)}
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.log.Debug().Uint64("generation", gen).Msg("discarding stale refresh result")
		return nil
	}
	s.snapshot = portfolio.Aggregate(merged)
	s.lastUpdated = s.now()
	s.lastErr = ""
	if roundErr != nil {
		s.lastErr = roundErr.Error()
	}
	snap := s.snapshot
	s.mu.Unlock()

	if roundErr != nil {
		s.log.Error().Err(roundErr).Msg("refresh round incomplete")
	}
	s.notify(snap)
	return roundErr
}

// Merge lays a fetched quote over a holding. Missing quote fields fall back to
// the holding's previous value, then to the buy price for the current price
// and to NoEarnings for the earnings period.
func Merge(h model.Holding, q model.Quote) model.Holding {
	switch {
	case q.Price() > 0:
		h.CurrentPrice = q.Price()
	case h.CurrentPrice > 0:
	default:
		h.CurrentPrice = h.BuyPrice
	}
	if pe := q.PE(); pe > 0 {
		h.PERatio = pe
	}
	switch {
	case q.LastEarnings != "":
		h.LastEarnings = q.LastEarnings
	case h.LastEarnings == "":
		h.LastEarnings = NoEarnings
	}
	return h
}

// startLocked starts a scheduler for the current generation. The caller holds s.mu.
func (s *Session) startLocked() {
	if len(s.snapshot.Holdings) == 0 || s.scheduler != nil {
		return
	}
	s.scheduler = refresh.New(s.Refresh, s.interval, s.log)
	s.scheduler.Start()
}

func (s *Session) notify(snap model.PortfolioSnapshot) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// distinctTickers returns each real ticker once, in first-seen order.
func distinctTickers(holdings []model.Holding) []string {
	seen := make(map[string]bool, len(holdings))
	var out []string
	for _, h := range holdings {
		if !h.HasTicker() || seen[h.Ticker] {
			continue
		}
		seen[h.Ticker] = true
		out = append(out, h.Ticker)
	}
	return out
}
