package geo_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/fairmeet/internal/domain/geo"
	"github.com/okian/fairmeet/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDistanceMeters(t *testing.T) {
	Convey("Given random point pairs", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test data
		for i := 0; i < 200; i++ {
			a := model.Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
			b := model.Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}

			So(geo.DistanceMeters(a, b), ShouldEqual, geo.DistanceMeters(b, a))
			So(geo.DistanceMeters(a, a), ShouldEqual, 0)
			So(geo.DistanceMeters(a, b), ShouldBeGreaterThanOrEqualTo, 0)
		}
	})

	Convey("Given one degree of latitude", t, func() {
		d := geo.DistanceMeters(model.Point{Lat: 0, Lng: 0}, model.Point{Lat: 1, Lng: 0})

		Convey("Then the distance is about 111 km", func() {
			So(d, ShouldAlmostEqual, 111319.49, 1)
		})
	})
}

func TestCentroid(t *testing.T) {
	Convey("Given an empty point set", t, func() {
		_, err := geo.Centroid(nil)
		So(errors.Is(err, geo.ErrInvalidInput), ShouldBeTrue)
	})

	Convey("Given a single point", t, func() {
		p := model.Point{Lat: 40.7128, Lng: -74.006}
		c, err := geo.Centroid([]model.Point{p})
		So(err, ShouldBeNil)
		So(c, ShouldResemble, p)
	})

	Convey("Given two points", t, func() {
		a := model.Point{Lat: 40.7, Lng: -74.0}
		b := model.Point{Lat: 40.8, Lng: -73.9}
		c, err := geo.Centroid([]model.Point{a, b})
		So(err, ShouldBeNil)

		Convey("Then the centroid equals the midpoint", func() {
			m := geo.Midpoint(a, b)
			So(c.Lat, ShouldAlmostEqual, m.Lat, 1e-12)
			So(c.Lng, ShouldAlmostEqual, m.Lng, 1e-12)
		})
	})

	Convey("Given three points", t, func() {
		c, err := geo.Centroid([]model.Point{{Lat: 0, Lng: 0}, {Lat: 3, Lng: 0}, {Lat: 0, Lng: 3}})
		So(err, ShouldBeNil)
		So(c.Lat, ShouldAlmostEqual, 1, 1e-12)
		So(c.Lng, ShouldAlmostEqual, 1, 1e-12)
	})
}

func TestOffset(t *testing.T) {
	Convey("Given a point moved 1 km north and 1 km east", t, func() {
		p := model.Point{Lat: 51.5, Lng: -0.12}
		north := geo.Offset(p, 1000, 0)
		east := geo.Offset(p, 0, 1000)

		Convey("Then the great-circle distance is close to 1 km", func() {
			So(geo.DistanceMeters(p, north), ShouldAlmostEqual, 1000, 1)
			So(geo.DistanceMeters(p, east), ShouldAlmostEqual, 1000, 1)
		})
	})
}
