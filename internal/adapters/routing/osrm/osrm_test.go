package osrm_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/fairmeet/internal/adapters/routing/osrm"
	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

var (
	origin      = model.Point{Lat: 40.712776, Lng: -74.005974}
	destination = model.Point{Lat: 40.730610, Lng: -73.935242}
)

func TestClient_Estimate(t *testing.T) {
	convey.Convey("Given an OSRM server", t, func() {
		var gotPath, gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":8123.4,"duration":912.5},{"distance":1,"duration":1}]}`))
		}))
		defer srv.Close()

		c := osrm.NewClient(srv.URL + "/")

		convey.Convey("When estimating a trip", func() {
			s, err := c.Estimate(context.Background(), origin, destination)

			convey.Convey("Then the first route is used and coordinates are lng,lat", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(s.DistanceMeters, convey.ShouldEqual, 8123.4)
				convey.So(s.DurationSeconds, convey.ShouldEqual, 912.5)
				convey.So(gotPath, convey.ShouldEqual, "/route/v1/driving/-74.005974,40.712776;-73.935242,40.730610")
				convey.So(gotQuery, convey.ShouldContainSubstring, "overview=false")
			})
		})
	})

	convey.Convey("Given a server that finds no route", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"NoRoute","message":"Impossible route between points"}`))
		}))
		defer srv.Close()

		_, err := osrm.NewClient(srv.URL).Estimate(context.Background(), origin, destination)
		convey.So(errors.Is(err, osrm.ErrNoRoute), convey.ShouldBeTrue)
	})

	convey.Convey("Given a server that answers Ok without routes", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"code":"Ok","routes":[]}`))
		}))
		defer srv.Close()

		_, err := osrm.NewClient(srv.URL).Estimate(context.Background(), origin, destination)
		convey.So(errors.Is(err, osrm.ErrNoRoute), convey.ShouldBeTrue)
	})

	convey.Convey("Given a failing server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := osrm.NewClient(srv.URL).Estimate(context.Background(), origin, destination)
		convey.So(errors.Is(err, osrm.ErrUpstream), convey.ShouldBeTrue)
	})

	convey.Convey("Given a slow server and a short deadline", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := osrm.NewClient(srv.URL, osrm.WithProfile("foot")).Estimate(ctx, origin, destination)
		convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
	})
}
