package resource

import (
	"errors"
	"time"

	"github.com/KilimcininKorOglu/revtree/internal/logging"
	"github.com/KilimcininKorOglu/revtree/internal/storage/cache"
	"github.com/KilimcininKorOglu/revtree/internal/storage/resolve"
)

// MaxNodeNumber is the largest snowflake node number.
const MaxNodeNumber = 1023

// Option errors.
var (
	ErrInvalidCacheSize  = errors.New("cache size must not be negative")
	ErrInvalidNodeNumber = errors.New("node number must be between 0 and 1023")
)

// Options configures a Manager.
type Options struct {
	// CacheSize is the number of decoded pages kept in memory.
	CacheSize int

	// PrefetchWorkers bounds concurrent page loads during Warm.
	PrefetchWorkers int

	// NodeNumber is the snowflake node used for transaction IDs.
	NodeNumber int64

	// Logger receives lifecycle events. Defaults to a no-op logger.
	Logger logging.Logger

	// Now stamps commits. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		CacheSize:       cache.DefaultCapacity,
		PrefetchWorkers: resolve.DefaultPrefetchWorkers,
		NodeNumber:      0,
	}
}

// Validate checks the options and fills in defaults.
func (o *Options) Validate() error {
	if o.CacheSize < 0 {
		return ErrInvalidCacheSize
	}
	if o.CacheSize == 0 {
		o.CacheSize = cache.DefaultCapacity
	}
	if o.PrefetchWorkers <= 0 {
		o.PrefetchWorkers = resolve.DefaultPrefetchWorkers
	}
	if o.NodeNumber < 0 || o.NodeNumber > MaxNodeNumber {
		return ErrInvalidNodeNumber
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return nil
}

// WithCacheSize returns a copy with the page cache size set.
func (o Options) WithCacheSize(size int) Options {
	o.CacheSize = size
	return o
}

// WithPrefetchWorkers returns a copy with the prefetch concurrency set.
func (o Options) WithPrefetchWorkers(n int) Options {
	o.PrefetchWorkers = n
	return o
}

// WithNodeNumber returns a copy with the snowflake node number set.
func (o Options) WithNodeNumber(n int64) Options {
	o.NodeNumber = n
	return o
}

// WithLogger returns a copy with the logger set.
func (o Options) WithLogger(l logging.Logger) Options {
	o.Logger = l
	return o
}

// WithClock returns a copy with the commit clock set.
func (o Options) WithClock(now func() time.Time) Options {
	o.Now = now
	return o
}
