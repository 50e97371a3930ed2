package oncotree

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mandawilson/smile-dashboard/internal/metrics"
	"github.com/rs/zerolog"
)

const cacheType = "oncotree"

// Cache holds Oncotree terms keyed by upper-cased code. Entries expire
// after the configured TTL unless a later Warm re-adds them.
type Cache struct {
	terms    *expirable.LRU[string, Term]
	fetcher  Fetcher
	log      *zerolog.Logger
	lastWarm atomic.Int64
}

// NewCache creates an empty cache. The LRU has no size bound; the taxonomy
// is a few thousand entries.
func NewCache(fetcher Fetcher, ttl time.Duration, logger *zerolog.Logger) *Cache {
	return &Cache{
		terms:   expirable.NewLRU[string, Term](0, nil, ttl),
		fetcher: fetcher,
		log:     logger,
	}
}

// Warm fetches the taxonomy and adds every term. Existing entries are
// refreshed, never purged, so a failed fetch leaves the cache serving.
func (c *Cache) Warm(ctx context.Context) (int, error) {
	start := time.Now()
	terms, err := c.fetcher.FetchTumorTypes(ctx)
	if err != nil {
		return 0, fmt.Errorf("warming oncotree cache: %w", err)
	}

	for _, term := range terms {
		c.terms.Add(normalizeCode(term.Code), term)
	}
	c.lastWarm.Store(time.Now().Unix())
	metrics.CacheEntries.WithLabelValues(cacheType).Set(float64(c.terms.Len()))

	c.log.Info().
		Int("terms", len(terms)).
		Dur("duration", time.Since(start)).
		Msg("oncotree cache warmed")

	return len(terms), nil
}

// Lookup returns the term for code, case-insensitively.
func (c *Cache) Lookup(code string) (Term, bool) {
	if code == "" {
		return Term{}, false
	}
	term, ok := c.terms.Get(normalizeCode(code))
	if ok {
		metrics.CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(cacheType).Inc()
	}
	return term, ok
}

// Len is the number of live entries.
func (c *Cache) Len() int {
	return c.terms.Len()
}

// LastWarm is when the cache was last filled, or the zero time.
func (c *Cache) LastWarm() time.Time {
	ts := c.lastWarm.Load()
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

// Ping reports an empty cache as unhealthy; used by the status endpoint.
func (c *Cache) Ping(context.Context) error {
	if c.Len() == 0 {
		return fmt.Errorf("oncotree cache is empty")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
