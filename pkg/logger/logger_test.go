package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the default initializer", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then a global logger is available", func() {
			So(Get(), ShouldNotBeNil)
		})
	})

	Convey("Given an unknown format", t, func() {
		err := InitWith("xml", &bytes.Buffer{})

		Convey("Then initialization fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown log format")
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(FormatJSON, &buf), ShouldBeNil)
		defer func() { _ = Init() }()

		Convey("When logging with fields through a named logger", func() {
			Named("engine").Named("scoring").Info(context.Background(), "venue scored",
				String("venue", "mock-cafe-1"),
				Float64("score", 12.5),
				Bool("cached", false),
			)

			Convey("Then the record carries the fields, name and caller", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "venue scored")
				So(rec["venue"], ShouldEqual, "mock-cafe-1")
				So(rec["score"], ShouldEqual, 12.5)
				So(rec["cached"], ShouldEqual, false)
				So(rec["logger"], ShouldEqual, "engine.scoring")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters out debug records", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Debug(context.Background(), "hidden")
			Get().Info(context.Background(), "hidden too")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "INFO", "", "warning", " error "} {
			So(SetLevelString(lvl), ShouldBeNil)
		}

		err := SetLevelString("verbose")
		So(err, ShouldNotBeNil)
		So(strings.Contains(err.Error(), "unknown log level"), ShouldBeTrue)
	})
}
