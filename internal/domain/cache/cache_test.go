package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/fairmeet/internal/domain/cache"
	"github.com/okian/fairmeet/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ranked(ids ...string) []model.ScoredVenue {
	out := make([]model.ScoredVenue, len(ids))
	for i, id := range ids {
		out[i] = model.ScoredVenue{Venue: model.Venue{PlaceID: id}, FairnessScore: float64(i)}
	}
	return out
}

func TestFingerprint(t *testing.T) {
	Convey("Given party positions", t, func() {
		a := model.Point{Lat: 40.712776, Lng: -74.005974}
		b := model.Point{Lat: 40.730610, Lng: -73.935242}

		Convey("Then order does not matter", func() {
			So(cache.Fingerprint([]model.Point{a, b}, "dining"), ShouldEqual, cache.Fingerprint([]model.Point{b, a}, "dining"))
		})

		Convey("Then category aliases normalise", func() {
			So(cache.Fingerprint([]model.Point{a, b}, "dining"), ShouldEqual, cache.Fingerprint([]model.Point{a, b}, " Dining "))
			So(cache.Fingerprint([]model.Point{a, b}, ""), ShouldEqual, cache.Fingerprint([]model.Point{a, b}, "dining"))
		})

		Convey("Then different inputs give different keys", func() {
			So(cache.Fingerprint([]model.Point{a, b}, "dining"), ShouldNotEqual, cache.Fingerprint([]model.Point{a, b}, "parks"))
			moved := model.Point{Lat: a.Lat + 0.001, Lng: a.Lng}
			So(cache.Fingerprint([]model.Point{a, b}, "dining"), ShouldNotEqual, cache.Fingerprint([]model.Point{moved, b}, "dining"))
		})

		Convey("Then the key is 16 hex characters", func() {
			So(len(cache.Fingerprint([]model.Point{a}, "bars")), ShouldEqual, 16)
		})
	})
}

func TestInMemoryCache(t *testing.T) {
	Convey("Given a new cache", t, func() {
		ctx := context.Background()
		c := cache.NewInMemoryCache()

		Convey("When nothing was stored", func() {
			_, ok := c.Get(ctx, "missing")
			So(ok, ShouldBeFalse)
			So(c.Len(), ShouldEqual, 0)
		})

		Convey("When a list is stored", func() {
			in := ranked("a", "b")
			c.Put(ctx, "fp", in)
			in[0].PlaceID = "mutated"

			Convey("Then it comes back as an independent copy", func() {
				got, ok := c.Get(ctx, "fp")
				So(ok, ShouldBeTrue)
				So(got[0].PlaceID, ShouldEqual, "a")
				got[1].PlaceID = "changed"
				again, _ := c.Get(ctx, "fp")
				So(again[1].PlaceID, ShouldEqual, "b")
			})

			Convey("And the last write wins", func() {
				c.Put(ctx, "fp", ranked("z"))
				got, _ := c.Get(ctx, "fp")
				So(len(got), ShouldEqual, 1)
				So(got[0].PlaceID, ShouldEqual, "z")
				So(c.Len(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a bounded cache", t, func() {
		ctx := context.Background()
		c := cache.NewInMemoryCache(cache.WithMaxEntries(2))
		c.Put(ctx, "one", ranked("1"))
		c.Put(ctx, "two", ranked("2"))

		Convey("When the oldest entry was read recently", func() {
			_, _ = c.Get(ctx, "one")
			c.Put(ctx, "three", ranked("3"))

			Convey("Then the least recently used entry is evicted", func() {
				_, okOne := c.Get(ctx, "one")
				_, okTwo := c.Get(ctx, "two")
				_, okThree := c.Get(ctx, "three")
				So(okOne, ShouldBeTrue)
				So(okTwo, ShouldBeFalse)
				So(okThree, ShouldBeTrue)
				So(c.Len(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an unbounded cache", t, func() {
		ctx := context.Background()
		c := cache.NewInMemoryCache(cache.WithMaxEntries(0))
		for i := 0; i < 2000; i++ {
			c.Put(ctx, fmt.Sprintf("fp-%d", i), ranked("x"))
		}
		So(c.Len(), ShouldEqual, 2000)
	})

	Convey("Given a cache with a TTL", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		var mu sync.Mutex
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}
		c := cache.NewInMemoryCache(cache.WithTTL(time.Minute), cache.WithClock(clock))
		c.Put(ctx, "fp", ranked("a"))

		Convey("When read before the TTL elapses", func() {
			_, ok := c.Get(ctx, "fp")
			So(ok, ShouldBeTrue)
		})

		Convey("When read after the TTL elapses", func() {
			mu.Lock()
			now = now.Add(2 * time.Minute)
			mu.Unlock()
			_, ok := c.Get(ctx, "fp")
			So(ok, ShouldBeFalse)
			So(c.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given concurrent writers and readers", t, func() {
		ctx := context.Background()
		c := cache.NewInMemoryCache(cache.WithMaxEntries(16))
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					key := fmt.Sprintf("fp-%d", (i*100+j)%32)
					c.Put(ctx, key, ranked("v"))
					_, _ = c.Get(ctx, key)
				}
			}(i)
		}
		wg.Wait()
		So(c.Len(), ShouldBeLessThanOrEqualTo, 16)
	})
}
