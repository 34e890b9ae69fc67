package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/fairmeet/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPointValidate(t *testing.T) {
	Convey("Given points", t, func() {
		Convey("When they are in range", func() {
			So(model.Point{Lat: 40.7, Lng: -74}.Validate(), ShouldBeNil)
			So(model.Point{Lat: -90, Lng: 180}.Validate(), ShouldBeNil)
		})

		Convey("When they are out of range or not finite", func() {
			for _, p := range []model.Point{
				{Lat: 91, Lng: 0},
				{Lat: 0, Lng: -180.5},
				{Lat: math.NaN(), Lng: 0},
				{Lat: 0, Lng: math.Inf(1)},
			} {
				So(errors.Is(p.Validate(), model.ErrInvalidPoint), ShouldBeTrue)
			}
		})
	})
}

func TestEligible(t *testing.T) {
	Convey("Given parties with and without positions", t, func() {
		parties := []model.Party{
			{ID: "you", Position: &model.Point{Lat: 1, Lng: 1}},
			{ID: "friend-1"},
			{ID: "friend-2", Position: &model.Point{Lat: 2, Lng: 2}},
		}

		Convey("Then only positioned parties are kept, in order", func() {
			got := model.Eligible(parties)
			So(len(got), ShouldEqual, 2)
			So(got[0].ID, ShouldEqual, "you")
			So(got[1].ID, ShouldEqual, "friend-2")
		})
	})
}

func TestCategoryPlaceType(t *testing.T) {
	Convey("Given categories", t, func() {
		So(model.CategoryDining.PlaceType(), ShouldEqual, "restaurant")
		So(model.CategoryCoffee.PlaceType(), ShouldEqual, "cafe")
		So(model.CategoryDrinks.PlaceType(), ShouldEqual, "bar")
		So(model.CategoryMovies.PlaceType(), ShouldEqual, "movie_theater")
		So(model.CategoryParks.PlaceType(), ShouldEqual, "park")
		So(model.Category(" Coffee ").PlaceType(), ShouldEqual, "cafe")
		So(model.Category("").PlaceType(), ShouldEqual, "restaurant")
		So(model.Category(" Bowling_Alley").PlaceType(), ShouldEqual, "bowling_alley")
		So(len(model.Categories()), ShouldEqual, 5)
	})
}

func TestScoredVenueClone(t *testing.T) {
	Convey("Given a scored venue", t, func() {
		v := model.ScoredVenue{
			Venue:       model.Venue{PlaceID: "a", Types: []string{"cafe"}},
			TravelTimes: []model.TravelSample{{PartyID: "you", DurationSeconds: 60}},
		}

		Convey("When cloned and the clone is mutated", func() {
			c := model.CloneAll([]model.ScoredVenue{v})
			c[0].Types[0] = "bar"
			c[0].TravelTimes[0].DurationSeconds = 1

			Convey("Then the original is untouched", func() {
				So(v.Types[0], ShouldEqual, "cafe")
				So(v.TravelTimes[0].DurationSeconds, ShouldEqual, 60)
			})
		})

		Convey("When cloning nil", func() {
			So(model.CloneAll(nil), ShouldBeNil)
		})
	})
}
