// Package cache holds generated reports in memory for the duration of their
// validity window. The cache is the only mutable state shared between
// concurrent generations; access is guarded by a single mutex. Two concurrent
// generations for the same fingerprint may both run to completion; the last
// writer wins.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
)

// DefaultValidityWindow is how long a cached report is considered fresh.
const DefaultValidityWindow = 24 * time.Hour

// Config controls cache behavior.
type Config struct {
	// ValidityWindow after which an entry is treated as absent; zero means
	// DefaultValidityWindow.
	ValidityWindow time.Duration `json:"validity_window,omitempty"`

	// SweepInterval for the optional background sweep; zero disables it.
	SweepInterval time.Duration `json:"sweep_interval,omitempty"`
}

// ReportCache maps fingerprint to generated report. Construct one at process
// start and pass it by reference; there is no ambient global.
type ReportCache struct {
	mu      sync.Mutex
	entries map[string]*model.GeneratedReport
	window  time.Duration
	logger  logging.Logger

	// now is swappable for expiry tests.
	now func() time.Time
}

// New creates an empty ReportCache.
func New(cfg Config, logger logging.Logger) *ReportCache {
	window := cfg.ValidityWindow
	if window <= 0 {
		window = DefaultValidityWindow
	}
	return &ReportCache{
		entries: make(map[string]*model.GeneratedReport),
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the cached report for a fingerprint, or nil if absent or
// expired. Expired entries are removed on read; the caller is responsible for
// regeneration.
func (c *ReportCache) Get(fp string) *model.GeneratedReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.entries[fp]
	if !ok {
		return nil
	}
	if c.expired(r) {
		delete(c.entries, fp)
		if c.logger != nil {
			c.logger.Debug("cache entry expired", logging.Field{Key: "fingerprint", Value: fp})
		}
		return nil
	}
	return r
}

// Put stores a report under its fingerprint, replacing any previous entry.
func (c *ReportCache) Put(fp string, report *model.GeneratedReport) {
	if report == nil {
		return
	}
	c.mu.Lock()
	c.entries[fp] = report
	c.mu.Unlock()
}

// Invalidate removes a fingerprint regardless of freshness. Used by forced
// regeneration.
func (c *ReportCache) Invalidate(fp string) {
	c.mu.Lock()
	delete(c.entries, fp)
	c.mu.Unlock()
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been swept.
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweep launches a background goroutine that evicts expired entries
// every interval until ctx is canceled. Sweeping is optional; expiry-on-read
// alone keeps Get correct.
func (c *ReportCache) StartSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

func (c *ReportCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for fp, r := range c.entries {
		if c.expired(r) {
			delete(c.entries, fp)
			removed++
		}
	}
	if removed > 0 && c.logger != nil {
		c.logger.Debug("cache sweep", logging.Field{Key: "evicted", Value: removed})
	}
}

func (c *ReportCache) expired(r *model.GeneratedReport) bool {
	return c.now().Sub(r.Metadata.GeneratedAt) >= c.window
}

// SetNowFunc overrides the clock. Tests only.
func (c *ReportCache) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
