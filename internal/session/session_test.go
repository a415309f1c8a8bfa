package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/session"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

func holdings() []model.Holding {
	return []model.Holding{
		{ID: "1", Name: "HDFC Bank", Ticker: "HDFCBANK", Quantity: 50, BuyPrice: 1490, Sector: "Financial Sector"},
		{ID: "2", Name: "Bajaj Finance", Ticker: "BAJFINANCE", Quantity: 15, BuyPrice: 6466, Sector: "Financial Sector"},
		{ID: "1", Name: "Affle India", Ticker: "AFFLE", Quantity: 50, BuyPrice: 1151, Sector: "Tech Sector"},
		{ID: "2", Name: "Mystery Co", Ticker: model.UnknownTicker, Quantity: 5, BuyPrice: 100, Sector: "Tech Sector"},
	}
}

func newSession(t *testing.T, f *testutil.MockQuoteFetcher, auto bool) *session.Session {
	t.Helper()
	s := session.New(f, session.Options{Interval: time.Hour, AutoRefresh: auto}, zerolog.Nop())
	t.Cleanup(s.Close)
	return s
}

func find(t *testing.T, snap model.PortfolioSnapshot, ticker string) model.Holding {
	t.Helper()
	for _, h := range snap.Holdings {
		if h.Ticker == ticker {
			return h
		}
	}
	t.Fatalf("holding %s not found", ticker)
	return model.Holding{}
}

// TestReplace covers loading a holding list.
//
// WHY: uploads must show their valuation straight away, at cost, before any
// quote has arrived.
func TestReplace(t *testing.T) {
	t.Run("aggregates immediately without fetching", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher()
		s := newSession(t, f, false)

		s.Replace(holdings())

		snap := s.Snapshot()
		require.Len(t, snap.Holdings, 4)
		assert.InDelta(t, 50*1490.0, find(t, snap, "HDFCBANK").TotalValue, 1e-9)
		assert.Zero(t, f.CallCount(""))

		st := s.Status()
		assert.Equal(t, "idle", st.State)
		assert.Equal(t, uint64(1), st.Generation)
		assert.Nil(t, st.LastUpdated)
	})

	t.Run("auto refresh starts with the load", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher().WithPrice("HDFCBANK", 1700.15)
		s := newSession(t, f, true)

		s.Replace(holdings())

		require.Eventually(t, func() bool {
			return find(t, s.Snapshot(), "HDFCBANK").CurrentPrice == 1700.15
		}, 2*time.Second, 5*time.Millisecond)

		st := s.Status()
		assert.NotEqual(t, "idle", st.State)
		require.NotNil(t, st.NextRefresh)
		assert.Greater(t, st.Countdown, 0)
		assert.True(t, st.AutoRefresh)
	})

	t.Run("empty list does not schedule refreshes", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher()
		s := newSession(t, f, true)

		s.Replace(nil)

		assert.Equal(t, "idle", s.Status().State)
		assert.Zero(t, f.CallCount(""))
	})

	t.Run("listeners see every load", func(t *testing.T) {
		s := newSession(t, testutil.NewMockQuoteFetcher(), false)
		var got []int
		s.OnUpdate(func(snap model.PortfolioSnapshot) { got = append(got, len(snap.Holdings)) })

		s.Replace(holdings())
		s.Replace(holdings()[:1])

		assert.Equal(t, []int{4, 1}, got)
	})

	t.Run("listener added during a notification runs from the next load", func(t *testing.T) {
		s := newSession(t, testutil.NewMockQuoteFetcher(), false)
		var outer, inner int
		s.OnUpdate(func(model.PortfolioSnapshot) {
			outer++
			if outer == 1 {
				s.OnUpdate(func(model.PortfolioSnapshot) { inner++ })
			}
		})

		s.Replace(holdings())
		assert.Equal(t, 0, inner)

		s.Replace(holdings())
		assert.Equal(t, 2, outer)
		assert.Equal(t, 1, inner)
	})
}

// TestRefresh covers merging fetched quotes into holdings.
//
// WHY: a refresh must only ever improve the data; failing tickers and
// missing fields keep what the holding already had.
func TestRefresh(t *testing.T) {
	t.Run("merges quotes for distinct real tickers", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher().WithPrice("HDFCBANK", 1700.15)
		s := newSession(t, f, false)
		hs := append(holdings(), model.Holding{ID: "3", Name: "HDFC Again", Ticker: "HDFCBANK", Quantity: 1, BuyPrice: 1500, Sector: "Financial Sector"})
		s.Replace(hs)

		require.NoError(t, s.Refresh(context.Background()))

		snap := s.Snapshot()
		h := find(t, snap, "HDFCBANK")
		assert.Equal(t, 1700.15, h.CurrentPrice)
		assert.Equal(t, 20.0, h.PERatio)
		assert.Equal(t, "Q2 2024", h.LastEarnings)
		assert.InDelta(t, 85007.5, h.TotalValue, 1e-9)
		assert.InDelta(t, 10507.5, h.GainLossAmount, 1e-9)

		assert.Equal(t, 1, f.CallCount("HDFCBANK"))
		assert.Zero(t, f.CallCount(model.UnknownTicker))
		assert.Equal(t, 3, f.CallCount(""))

		st := s.Status()
		require.NotNil(t, st.LastUpdated)
		assert.Empty(t, st.Error)
		assert.False(t, st.Loading)
	})

	t.Run("failing ticker keeps previous values", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher().WithError("AFFLE", errors.New("rate limited"))
		s := newSession(t, f, false)
		hs := holdings()
		hs[2].CurrentPrice = 1459.6
		s.Replace(hs)

		err := s.Refresh(context.Background())

		var roundErr *session.RoundError
		require.ErrorAs(t, err, &roundErr)
		assert.Equal(t, []string{"AFFLE"}, roundErr.Failed)
		assert.Equal(t, 3, roundErr.Total)

		snap := s.Snapshot()
		assert.Equal(t, 1459.6, find(t, snap, "AFFLE").CurrentPrice)
		assert.Equal(t, 100.0, find(t, snap, "HDFCBANK").CurrentPrice)
		assert.Contains(t, s.Status().Error, "AFFLE")
	})

	t.Run("clean round clears the previous error", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher().WithError("AFFLE", errors.New("rate limited"))
		s := newSession(t, f, false)
		s.Replace(holdings())
		_ = s.Refresh(context.Background())
		require.NotEmpty(t, s.Status().Error)

		f.WithError("AFFLE", nil)
		require.NoError(t, s.Refresh(context.Background()))
		assert.Empty(t, s.Status().Error)
	})

	t.Run("result for replaced holdings is discarded", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher().WithPrice("HDFCBANK", 9999)
		f.Gate = make(chan struct{})
		f.Started = make(chan string, 8)
		s := newSession(t, f, false)
		s.Replace(holdings())

		done := make(chan error, 1)
		go func() { done <- s.Refresh(context.Background()) }()
		<-f.Started

		replacement := []model.Holding{{ID: "1", Name: "HDFC Bank", Ticker: "HDFCBANK", Quantity: 10, BuyPrice: 1490, Sector: "Financial Sector"}}
		s.Replace(replacement)
		close(f.Gate)
		require.NoError(t, <-done)

		snap := s.Snapshot()
		require.Len(t, snap.Holdings, 1)
		assert.Zero(t, snap.Holdings[0].CurrentPrice)
		assert.InDelta(t, 14900.0, snap.TotalValue, 1e-9)
		assert.Nil(t, s.Status().LastUpdated)
	})

	t.Run("cancelled round commits nothing", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher()
		f.Gate = make(chan struct{})
		s := newSession(t, f, false)
		s.Replace(holdings())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, s.Refresh(ctx), context.Canceled)
		assert.Zero(t, find(t, s.Snapshot(), "HDFCBANK").CurrentPrice)
	})

	t.Run("no real tickers means nothing to fetch", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher()
		s := newSession(t, f, false)
		s.Replace([]model.Holding{{Name: "Mystery", Ticker: model.UnknownTicker, Quantity: 1, BuyPrice: 1}})

		require.NoError(t, s.Refresh(context.Background()))
		assert.Zero(t, f.CallCount(""))
	})

	t.Run("loading is reported while a round runs", func(t *testing.T) {
		f := testutil.NewMockQuoteFetcher()
		f.Gate = make(chan struct{})
		f.Started = make(chan string, 8)
		s := newSession(t, f, false)
		s.Replace(holdings()[:1])

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Refresh(context.Background())
		}()
		<-f.Started
		assert.True(t, s.Status().Loading)

		close(f.Gate)
		wg.Wait()
		assert.False(t, s.Status().Loading)
	})
}

func TestSetAutoRefresh(t *testing.T) {
	f := testutil.NewMockQuoteFetcher()
	s := newSession(t, f, false)
	s.Replace(holdings())
	require.Equal(t, "idle", s.Status().State)

	s.SetAutoRefresh(true)
	require.Eventually(t, func() bool { return f.CallCount("") >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.NotEqual(t, "idle", s.Status().State)

	s.SetAutoRefresh(false)
	st := s.Status()
	assert.Equal(t, "idle", st.State)
	assert.False(t, st.AutoRefresh)
	assert.Nil(t, st.NextRefresh)
}

func TestMerge(t *testing.T) {
	price := 1700.15
	pe := 24.3
	base := model.Holding{Ticker: "HDFCBANK", BuyPrice: 1490, CurrentPrice: 1650, PERatio: 22, LastEarnings: "Q1 2024"}

	tests := []struct {
		name     string
		holding  model.Holding
		quote    model.Quote
		price    float64
		pe       float64
		earnings string
	}{
		{"fetched values win", base, model.Quote{CurrentPrice: &price, PERatio: &pe, LastEarnings: "Q2 2024"}, 1700.15, 24.3, "Q2 2024"},
		{"missing fields keep previous", base, model.Quote{}, 1650, 22, "Q1 2024"},
		{"no previous price uses buy price", model.Holding{BuyPrice: 1490}, model.Quote{}, 1490, 0, session.NoEarnings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := session.Merge(tt.holding, tt.quote)
			assert.Equal(t, tt.price, got.CurrentPrice)
			assert.Equal(t, tt.pe, got.PERatio)
			assert.Equal(t, tt.earnings, got.LastEarnings)
		})
	}
}
