package config_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/okian/fairmeet/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DailyLimit, convey.ShouldEqual, 100)
			convey.So(cfg.SearchRadiusM, convey.ShouldEqual, 4000)
			convey.So(cfg.SearchTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.RunTimeout(), convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.MaxWeight, convey.ShouldEqual, 0.7)
			convey.So(cfg.DispersionWeight, convey.ShouldEqual, 0.3)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.SearchProvider, convey.ShouldEqual, config.ProviderSimulated)
			convey.So(cfg.RoutingProvider, convey.ShouldEqual, config.ProviderSimulated)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And no expiry is configured", func() {
			exp, err := cfg.Expiry()
			convey.So(err, convey.ShouldBeNil)
			convey.So(exp.IsZero(), convey.ShouldBeTrue)
		})

		convey.Convey("And the local zone is used", func() {
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc, convey.ShouldEqual, time.Local)
		})
	})
}
