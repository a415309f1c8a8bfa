package marketdata

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// Defaults for NewCache.
const (
	DefaultTTL       = 15 * time.Second
	DefaultRetention = 10 * time.Minute
	DefaultDelay     = 200 * time.Millisecond
)

type entry struct {
	quote    model.Quote
	storedAt time.Time
}

type result struct {
	quote model.Quote
	err   error
}

type request struct {
	ctx    context.Context
	ticker string
	reply  chan result
}

// Cache serves quotes from memory while they are younger than the TTL and
// otherwise sends the request through a single FIFO queue. One worker drains
// the queue, calling the upstream fetcher for each request and pausing for
// the configured delay after every upstream call. A failed fetch is returned
// only to the request that triggered it and is not cached.
//
// The pause follows upstream calls only, not every dequeued request: a queued
// request answered from the cache (an earlier request fetched the same ticker)
// or already cancelled does not add a delay. Upstream calls are still spaced by
// at least the delay.
//
// Returned quotes are copies; callers may modify them.
//
// Entries are kept for the retention window so expired quotes still show in
// Stats; whether an entry may be served is decided by its age alone.
type Cache struct {
	fetcher   Fetcher
	store     *gocache.Cache
	ttl       time.Duration
	retention time.Duration
	delay     time.Duration
	now       func() time.Time
	log       zerolog.Logger

	mu       sync.Mutex
	queue    []*request
	draining bool
	closed   bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long a quote is served without refetching.
func WithTTL(d time.Duration) Option { return func(c *Cache) { c.ttl = d } }

// WithRetention sets how long an entry is kept after it was stored.
func WithRetention(d time.Duration) Option { return func(c *Cache) { c.retention = d } }

// WithDelay sets the pause after each upstream call.
func WithDelay(d time.Duration) Option { return func(c *Cache) { c.delay = d } }

// WithClock replaces the clock used to age entries.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Cache) { c.log = log.With().Str("component", "quote_cache").Logger() }
}

// NewCache wraps fetcher with a TTL cache and a rate-limited request queue.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:   fetcher,
		ttl:       DefaultTTL,
		retention: DefaultRetention,
		delay:     DefaultDelay,
		now:       time.Now,
		log:       zerolog.Nop(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retention < c.ttl {
		c.retention = c.ttl
	}
	c.store = gocache.New(c.retention, c.retention)
	return c
}

// Get returns the quote for ticker, from memory when fresh or through the
// queue otherwise. It blocks until the queued request has been processed,
// ctx is done or the cache is closed.
func (c *Cache) Get(ctx context.Context, ticker string) (model.Quote, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return model.Quote{}, apperrors.ErrInvalidTicker
	}
	if q, ok := c.lookup(ticker); ok {
		return q, nil
	}

	req := &request{ctx: ctx, ticker: ticker, reply: make(chan result, 1)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return model.Quote{}, apperrors.ErrCacheClosed
	}
	c.queue = append(c.queue, req)
	if !c.draining {
		c.draining = true
		c.wg.Add(1)
		go c.drain()
	}
	c.mu.Unlock()

	select {
	case res := <-req.reply:
		return res.quote, res.err
	case <-ctx.Done():
		return model.Quote{}, ctx.Err()
	}
}

// FetchQuote makes Cache a Fetcher.
func (c *Cache) FetchQuote(ctx context.Context, ticker string) (model.Quote, error) {
	return c.Get(ctx, ticker)
}

// Clear drops every cached entry. Queued requests are unaffected.
func (c *Cache) Clear() {
	c.store.Flush()
	c.log.Info().Msg("quote cache cleared")
}

// Stats reports the cached entries ordered by ticker.
func (c *Cache) Stats() model.CacheStats {
	now := c.now()
	items := c.store.Items()

	stats := model.CacheStats{Size: len(items), Items: make([]model.CacheItem, 0, len(items))}
	for ticker, item := range items {
		e := item.Object.(entry)
		age := now.Sub(e.storedAt)
		stats.Items = append(stats.Items, model.CacheItem{
			Ticker:     ticker,
			AgeSeconds: age.Seconds(),
			Valid:      age < c.ttl,
		})
	}
	sort.Slice(stats.Items, func(i, j int) bool { return stats.Items[i].Ticker < stats.Items[j].Ticker })
	return stats
}

// Close stops the worker. Requests still queued are answered with
// ErrCacheClosed and an in-flight upstream call is cancelled.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, req := range pending {
		req.reply <- result{err: apperrors.ErrCacheClosed}
	}
	c.wg.Wait()
}

func (c *Cache) lookup(ticker string) (model.Quote, bool) {
	v, ok := c.store.Get(ticker)
	if !ok {
		return model.Quote{}, false
	}
	e := v.(entry)
	if c.now().Sub(e.storedAt) >= c.ttl {
		return model.Quote{}, false
	}
	return e.quote.Clone(), true
}

func (c *Cache) drain() {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		if c.closed || len(c.queue) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}
		req := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.mu.Unlock()

		if c.process(req) {
			c.pause()
		}
	}
}

// process answers one request and reports whether the upstream was called.
func (c *Cache) process(req *request) bool {
	if err := req.ctx.Err(); err != nil {
		req.reply <- result{err: err}
		return false
	}
	// An earlier request in the queue may already have fetched this ticker.
	if q, ok := c.lookup(req.ticker); ok {
		req.reply <- result{quote: q}
		return false
	}

	ctx, cancel := context.WithCancel(req.ctx)
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	q, err := c.fetcher.FetchQuote(ctx, req.ticker)
	cancel()

	if err != nil {
		c.log.Warn().Err(err).Str("ticker", req.ticker).Msg("quote fetch failed")
		req.reply <- result{err: err}
		return true
	}

	c.store.Set(req.ticker, entry{quote: q.Clone(), storedAt: c.now()}, gocache.DefaultExpiration)
	req.reply <- result{quote: q}
	return true
}

func (c *Cache) pause() {
	if c.delay <= 0 {
		return
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-c.done:
	}
}
