// Package counts keeps the per-day entry counts used for calendar badges.
package counts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tableflip.dev/diary/pkg/entry"
)

// ErrStale is returned by Refresh when a newer Refresh started while it was
// fetching. Its result is dropped.
var ErrStale = errors.New("counts: superseded refresh")

// Fetcher loads the counts of one month.
type Fetcher interface {
	Counts(ctx context.Context, month entry.MonthKey) (entry.CountMap, error)
}

// Cache merges the counts of the months a view touches into one map.
//
// It refetches only when the set of months changes, so moving the selection
// within the same months costs nothing. Counts are not pushed by the server;
// after a mutation they stay as fetched until the month set changes or
// Invalidate is called.
type Cache struct {
	fetcher Fetcher

	mu     sync.RWMutex
	months []entry.MonthKey
	counts entry.CountMap
	stale  bool
	gen    uint64
}

// New returns an empty cache backed by f.
func New(f Fetcher) *Cache {
	return &Cache{
		fetcher: f,
		counts:  entry.CountMap{},
	}
}

// Refresh makes the cache cover exactly months. It issues one fetch per
// distinct month, sequentially, and reports whether any fetch happened.
// Months that fail keep whatever counts they had; the set is only marked
// current once every month succeeded so the next Refresh retries.
//
// Only the most recently started Refresh may store its result. An earlier
// one finishing later returns ErrStale and leaves the cache untouched.
func (c *Cache) Refresh(ctx context.Context, months []entry.MonthKey) (bool, error) {
	want := entry.SortMonths(months)

	c.mu.Lock()
	if !c.stale && sameMonths(c.months, want) {
		c.mu.Unlock()
		return false, nil
	}
	c.gen++
	gen := c.gen
	previous := c.counts.Clone()
	c.mu.Unlock()

	next := entry.CountMap{}
	var errs []error
	for _, m := range want {
		got, err := c.fetcher.Counts(ctx, m)
		if err != nil {
			errs = append(errs, fmt.Errorf("counts: fetch %s: %w", m, err))
			for day, n := range previous {
				if m.Contains(day) {
					next[day] = n
				}
			}
			continue
		}
		merge(next, m, got)
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return true, ErrStale
	}
	c.counts = next
	if len(errs) == 0 {
		c.months = want
		c.stale = false
	}
	c.mu.Unlock()
	return true, errors.Join(errs...)
}

// Merge folds a fetched month into the cache. Later values for a day
// overwrite earlier ones, so merging the same map twice changes nothing.
func (c *Cache) Merge(month entry.MonthKey, counts entry.CountMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	merge(c.counts, month, counts)
}

// merge replaces the month's days in dst with src. Days of the month absent
// from src are removed so they read as zero.
func merge(dst entry.CountMap, month entry.MonthKey, src entry.CountMap) {
	for day := range dst {
		if month.Contains(day) {
			if _, ok := src[day]; !ok {
				delete(dst, day)
			}
		}
	}
	for day, n := range src {
		if n < 0 || !month.Contains(day) {
			continue
		}
		dst[day] = n
	}
}

// Count returns the badge for day, zero when unknown.
func (c *Cache) Count(day entry.DateKey) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts.Get(day)
}

// Snapshot copies the merged map.
func (c *Cache) Snapshot() entry.CountMap {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts.Clone()
}

// Months returns the month set of the last complete refresh.
func (c *Cache) Months() []entry.MonthKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]entry.MonthKey(nil), c.months...)
}

// Invalidate forces the next Refresh to fetch even for the same months.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
}

// Adjust applies a local delta to day, used to keep badges in step with a
// confirmed create or delete without refetching.
func (c *Cache) Adjust(day entry.DateKey, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.counts[day] + delta
	if n <= 0 {
		delete(c.counts, day)
		return
	}
	c.counts[day] = n
}

func sameMonths(a, b []entry.MonthKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
