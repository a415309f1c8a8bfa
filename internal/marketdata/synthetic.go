package marketdata

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/google"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/yahoo"
)

// Synthetic produces plausible placeholder market data for a ticker when a
// real source is unavailable. It is safe for concurrent use.
type Synthetic struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSynthetic returns a generator drawing from rng. A nil rng uses a randomly
// seeded source.
func NewSynthetic(rng *rand.Rand, now func() time.Time) *Synthetic {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &Synthetic{rng: rng, now: now}
}

// Price returns a price in [500, 2500) with a day range of ±2% and a volume in
// [10000, 1010000).
func (s *Synthetic) Price(ticker string) yahoo.Price {
	s.mu.Lock()
	base := s.rng.Float64()
	vol := s.rng.Float64()
	s.mu.Unlock()

	current := round(500+base*2000, 2)
	high := round(current*1.02, 2)
	low := round(current*0.98, 2)
	volume := int64(10000 + vol*1000000)

	return yahoo.Price{
		Symbol:  ticker,
		Current: current,
		DayHigh: &high,
		DayLow:  &low,
		Volume:  &volume,
	}
}

// Metrics returns a P/E in [10, 50] and an earnings period in the current year.
func (s *Synthetic) Metrics() google.Metrics {
	s.mu.Lock()
	pe := round(10+s.rng.Float64()*40, 1)
	quarter := s.rng.IntN(4) + 1
	s.mu.Unlock()

	return google.Metrics{
		PERatio:      &pe,
		LastEarnings: fmt.Sprintf("Q%d %d", quarter, s.now().Year()),
	}
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
