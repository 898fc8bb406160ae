package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"icedash/pkg/contracts/domain"
)

// clock is a package-level time source so tests can freeze time via
// SetClock. Production code uses the real clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for cache expiry. Pass nil to reset to
// real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// loadFunc performs an uncached load from the medium.
type loadFunc func(ctx context.Context) (domain.Table, domain.LoadReport, error)

// loadCache memoizes the load step for a bounded time, cutting remote
// round-trips for read-heavy interactive sessions. Mutating operations
// invalidate it explicitly; there is no finer-grained scheme.
type loadCache struct {
	ttl  time.Duration
	load loadFunc

	// optional instrumentation hooks
	onHit  func()
	onMiss func()

	mu       sync.Mutex
	table    domain.Table
	report   domain.LoadReport
	loadedAt time.Time
	valid    bool
}

func newLoadCache(ttl time.Duration, load loadFunc) *loadCache {
	return &loadCache{ttl: ttl, load: load}
}

func (c *loadCache) get(ctx context.Context) (domain.Table, domain.LoadReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.ttl > 0 && clock.Since(c.loadedAt) < c.ttl {
		if c.onHit != nil {
			c.onHit()
		}
		// Hand out a copy so callers can't mutate the cached table.
		out := make(domain.Table, len(c.table))
		copy(out, c.table)
		return out, c.report, nil
	}

	if c.onMiss != nil {
		c.onMiss()
	}
	table, report, err := c.load(ctx)
	if err != nil {
		return nil, report, err
	}

	if c.ttl > 0 {
		c.table = table
		c.report = report
		c.loadedAt = clock.Now()
		c.valid = true
	}

	out := make(domain.Table, len(table))
	copy(out, table)
	return out, report, nil
}

func (c *loadCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.table = nil
}
