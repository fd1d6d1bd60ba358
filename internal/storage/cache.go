package storage

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/julianstephens/wellcheck/internal/models"
)

// CachedView memoises Load for a Provider. Writes made through the view
// invalidate it; writes made by other processes are picked up once maxAge
// elapses (zero means the cache never expires on its own).
type CachedView struct {
	Provider

	maxAge time.Duration

	mu       sync.Mutex
	version  uint64
	entries  []models.Entry
	loadedAt time.Time
	valid    bool

	group singleflight.Group
}

func NewCachedView(p Provider, maxAge time.Duration) *CachedView {
	return &CachedView{Provider: p, maxAge: maxAge}
}

// Load returns the cached log, reading through to the provider when the
// cache is empty or stale. Concurrent misses share one read.
func (c *CachedView) Load() ([]models.Entry, error) {
	c.mu.Lock()
	if c.fresh() {
		entries := c.entries
		c.mu.Unlock()
		return copyEntries(entries), nil
	}
	version := c.version
	c.mu.Unlock()

	v, err, _ := c.group.Do("load", func() (interface{}, error) {
		entries, err := c.Provider.Load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// A write landed while we were reading; keep the result for this
		// caller but don't install it.
		if c.version == version {
			c.entries = entries
			c.loadedAt = time.Now()
			c.valid = true
		}
		c.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return copyEntries(v.([]models.Entry)), nil
}

func (c *CachedView) Append(e models.Entry) error {
	err := c.Provider.Append(e)
	if err == nil {
		c.Invalidate()
	}
	return err
}

func (c *CachedView) ClearAll() error {
	err := c.Provider.ClearAll()
	if err == nil {
		c.Invalidate()
	}
	return err
}

func (c *CachedView) HasEntry(username string, date time.Time) (bool, error) {
	entries, err := c.Load()
	if err != nil {
		return false, err
	}
	return hasEntry(entries, username, date), nil
}

// Invalidate drops the cached log.
func (c *CachedView) Invalidate() {
	c.mu.Lock()
	c.version++
	c.valid = false
	c.entries = nil
	c.mu.Unlock()
	c.group.Forget("load")
}

// Version increases on every invalidation.
func (c *CachedView) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *CachedView) fresh() bool {
	if !c.valid {
		return false
	}
	return c.maxAge <= 0 || time.Since(c.loadedAt) < c.maxAge
}

func copyEntries(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	copy(out, entries)
	return out
}

var _ Provider = (*CachedView)(nil)
