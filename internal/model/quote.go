package model

import "time"

// Quote holds the market attributes fetched for one ticker. Pointer fields are
// optional: a nil value means the source did not provide the attribute.
type Quote struct {
	Ticker           string    `json:"ticker"`
	CurrentPrice     *float64  `json:"currentPrice,omitempty"`
	DayHigh          *float64  `json:"dayHigh,omitempty"`
	DayLow           *float64  `json:"dayLow,omitempty"`
	Volume           *int64    `json:"volume,omitempty"`
	PERatio          *float64  `json:"peRatio,omitempty"`
	LastEarnings     string    `json:"lastEarnings,omitempty"`
	PriceSynthetic   bool      `json:"priceSynthetic"`
	MetricsSynthetic bool      `json:"metricsSynthetic"`
	FetchedAt        time.Time `json:"fetchedAt"`
}

// Merge returns q with every field that other provides laid over it.
// Fields of other win on overlap.
func (q Quote) Merge(other Quote) Quote {
	if other.Ticker != "" {
		q.Ticker = other.Ticker
	}
	if other.CurrentPrice != nil {
		q.CurrentPrice = other.CurrentPrice
	}
	if other.DayHigh != nil {
		q.DayHigh = other.DayHigh
	}
	if other.DayLow != nil {
		q.DayLow = other.DayLow
	}
	if other.Volume != nil {
		q.Volume = other.Volume
	}
	if other.PERatio != nil {
		q.PERatio = other.PERatio
	}
	if other.LastEarnings != "" {
		q.LastEarnings = other.LastEarnings
	}
	if !other.FetchedAt.IsZero() {
		q.FetchedAt = other.FetchedAt
	}
	return q
}

// Clone returns a copy of q that shares no pointed-to values with it.
func (q Quote) Clone() Quote {
	q.CurrentPrice = clonePtr(q.CurrentPrice)
	q.DayHigh = clonePtr(q.DayHigh)
	q.DayLow = clonePtr(q.DayLow)
	q.Volume = clonePtr(q.Volume)
	q.PERatio = clonePtr(q.PERatio)
	return q
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Price returns the current price, or 0 when unknown.
func (q Quote) Price() float64 {
	if q.CurrentPrice == nil {
		return 0
	}
	return *q.CurrentPrice
}

// PE returns the P/E ratio, or 0 when unknown.
func (q Quote) PE() float64 {
	if q.PERatio == nil {
		return 0
	}
	return *q.PERatio
}

// CacheItem describes one cached quote for diagnostics.
type CacheItem struct {
	Ticker     string  `json:"ticker"`
	AgeSeconds float64 `json:"age"`
	Valid      bool    `json:"isValid"`
}

// CacheStats summarises the quote cache.
type CacheStats struct {
	Size  int         `json:"size"`
	Items []CacheItem `json:"items"`
}
