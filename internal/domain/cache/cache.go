// Package cache memoizes ranked results by request fingerprint.
package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/pkg/metrics"
)

const defaultMaxEntries = 1024

// Cache stores ranked venue lists by fingerprint. Last write wins.
type Cache interface {
	// Get returns a copy of the stored list.
	Get(ctx context.Context, fingerprint string) ([]model.ScoredVenue, bool)
	// Put stores a copy of venues under fingerprint.
	Put(ctx context.Context, fingerprint string, venues []model.ScoredVenue)
	Len() int
}

// PointKey formats p at the precision fingerprints use.
func PointKey(p model.Point) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Fingerprint derives a stable key from the eligible positions and the
// category. Party order and party ids do not matter.
func Fingerprint(points []model.Point, category model.Category) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = PointKey(p)
	}
	sort.Strings(parts)
	key := strings.Join(parts, ";") + "|" + category.PlaceType()
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// entry is a node of the recency list; head is the most recently used.
type entry struct {
	key     string
	venues  []model.ScoredVenue
	written time.Time
	prev    *entry
	next    *entry
}

func (e *entry) reset() {
	*e = entry{}
}

type inMemoryCache struct {
	mu         sync.Mutex
	items      map[string]*entry
	head       *entry
	tail       *entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	entryPool  sync.Pool
}

// NewInMemoryCache creates a new in-memory cache with configuration options.
func NewInMemoryCache(opts ...Option) Cache {
	c := &inMemoryCache{
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.items = make(map[string]*entry)
	c.entryPool = sync.Pool{
		New: func() interface{} {
			return &entry{}
		},
	}
	metrics.UpdateCacheSize(0)
	return c
}

func (c *inMemoryCache) Get(_ context.Context, fingerprint string) ([]model.ScoredVenue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[fingerprint]
	if !ok {
		metrics.RecordCacheMiss()
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.written) >= c.ttl {
		c.removeLocked(e)
		metrics.RecordCacheEviction()
		metrics.RecordCacheMiss()
		return nil, false
	}
	c.moveToFrontLocked(e)
	metrics.RecordCacheHit()
	return model.CloneAll(e.venues), true
}

func (c *inMemoryCache) Put(_ context.Context, fingerprint string, venues []model.ScoredVenue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[fingerprint]; ok {
		e.venues = model.CloneAll(venues)
		e.written = c.now()
		c.moveToFrontLocked(e)
		return
	}

	if c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.removeLocked(c.tail)
		metrics.RecordCacheEviction()
	}

	e := c.entryPool.Get().(*entry)
	e.key = fingerprint
	e.venues = model.CloneAll(venues)
	e.written = c.now()
	c.pushFrontLocked(e)
	c.items[fingerprint] = e
	metrics.UpdateCacheSize(len(c.items))
}

func (c *inMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Must be called with c.mu held.
func (c *inMemoryCache) pushFrontLocked(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

// Must be called with c.mu held.
func (c *inMemoryCache) unlinkLocked(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

// Must be called with c.mu held.
func (c *inMemoryCache) moveToFrontLocked(e *entry) {
	if c.head == e {
		return
	}
	c.unlinkLocked(e)
	c.pushFrontLocked(e)
}

// Must be called with c.mu held.
func (c *inMemoryCache) removeLocked(e *entry) {
	if e == nil {
		return
	}
	c.unlinkLocked(e)
	delete(c.items, e.key)
	e.reset()
	c.entryPool.Put(e)
	metrics.UpdateCacheSize(len(c.items))
}
