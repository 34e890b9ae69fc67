package venue_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/fairmeet/internal/domain/geo"
	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/domain/venue"
	. "github.com/smartystreets/goconvey/convey"
)

var center = model.Point{Lat: 40.7306, Lng: -73.9866}

func TestSimulatedFinder(t *testing.T) {
	Convey("Given a simulated finder", t, func() {
		f := venue.NewSimulatedFinder(venue.WithSeed(3))
		ctx := context.Background()

		Convey("When searching for cafes", func() {
			venues, err := f.Search(ctx, center, 4000, "cafe")

			Convey("Then five to eight realistic venues come back inside the radius", func() {
				So(err, ShouldBeNil)
				So(len(venues), ShouldBeBetweenOrEqual, 5, 8)
				seen := map[string]bool{}
				for i, v := range venues {
					So(seen[v.PlaceID], ShouldBeFalse)
					seen[v.PlaceID] = true
					So(v.PlaceID, ShouldStartWith, "mock-cafe-")
					So(geo.DistanceMeters(center, v.Location), ShouldBeLessThanOrEqualTo, 4000)
					So(v.Rating, ShouldBeBetweenOrEqual, 4.2, 4.9)
					So(v.UserRatingsTotal, ShouldBeBetweenOrEqual, 50, 849)
					So(v.PriceLevel, ShouldBeBetweenOrEqual, 1, 2)
					So(strings.HasSuffix(v.Vicinity, " Main St"), ShouldBeTrue)
					So(v.Location.Validate(), ShouldBeNil)
					So(i, ShouldBeLessThan, 8)
				}
			})
		})

		Convey("When searching for parks", func() {
			venues, err := f.Search(ctx, center, 2000, "park")
			So(err, ShouldBeNil)

			Convey("Then parks are free and highly rated", func() {
				for _, v := range venues {
					So(v.PriceLevel, ShouldEqual, 0)
					So(v.Rating, ShouldBeGreaterThanOrEqualTo, 4.5)
				}
			})
		})

		Convey("When searching an unknown place type", func() {
			venues, err := f.Search(ctx, center, 1000, "bowling_alley")
			So(err, ShouldBeNil)
			So(venues[0].PlaceID, ShouldEqual, "mock-bowling_alley-0")
			So(venues[0].PriceLevel, ShouldEqual, 2)
		})
	})

	Convey("Given a slow simulated finder", t, func() {
		f := venue.NewSimulatedFinder(venue.WithLatencyRange(time.Second, 2*time.Second))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		Convey("When the context expires first", func() {
			_, err := f.Search(ctx, center, 1000, "bar")
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})
}
