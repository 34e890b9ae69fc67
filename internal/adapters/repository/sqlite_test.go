package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/fairmeet/internal/adapters/repository"
	"github.com/okian/fairmeet/internal/domain/quota"
	"github.com/okian/fairmeet/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func openStore(t *testing.T) (*repository.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quota.db")
	s, err := repository.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a fresh quota database", t, func() {
		s, path := openStore(t)

		convey.Convey("Load returns the zero state", func() {
			st, err := s.Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(st, convey.ShouldResemble, quota.State{})
		})

		convey.Convey("Save then Load round-trips the latest day", func() {
			convey.So(s.Save(ctx, quota.State{DateKey: "2026-03-01", CallCount: 4}), convey.ShouldBeNil)
			convey.So(s.Save(ctx, quota.State{DateKey: "2026-03-01", CallCount: 5}), convey.ShouldBeNil)
			convey.So(s.Save(ctx, quota.State{DateKey: "2026-03-02", CallCount: 1}), convey.ShouldBeNil)

			st, err := s.Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(st, convey.ShouldResemble, quota.State{DateKey: "2026-03-02", CallCount: 1})

			hist, err := s.History(ctx, 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(hist, convey.ShouldResemble, []quota.State{
				{DateKey: "2026-03-02", CallCount: 1},
				{DateKey: "2026-03-01", CallCount: 5},
			})
		})

		convey.Convey("The counter survives reopening", func() {
			convey.So(s.Save(ctx, quota.State{DateKey: "2026-03-01", CallCount: 42}), convey.ShouldBeNil)
			convey.So(s.Close(), convey.ShouldBeNil)

			again, err := repository.Open(path)
			convey.So(err, convey.ShouldBeNil)
			defer again.Close()
			st, err := again.Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(st.CallCount, convey.ShouldEqual, 42)
		})

		convey.Convey("Invalid states are rejected", func() {
			err := s.Save(ctx, quota.State{DateKey: "", CallCount: 1})
			convey.So(errors.Is(err, repository.ErrInvalidState), convey.ShouldBeTrue)
			err = s.Save(ctx, quota.State{DateKey: "2026-03-01", CallCount: -1})
			convey.So(errors.Is(err, repository.ErrInvalidState), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Open requires a path", t, func() {
		_, err := repository.Open("  ")
		convey.So(errors.Is(err, repository.ErrPathRequired), convey.ShouldBeTrue)
	})

	convey.Convey("A guard backed by SQLite persists committed searches", t, func() {
		s, _ := openStore(t)
		g := quota.NewGuard(quota.WithStore(s), quota.WithDailyLimit(2))

		r, err := g.CheckAndReserve(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(r.Commit(ctx), convey.ShouldBeNil)

		st, err := s.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(st.CallCount, convey.ShouldEqual, 1)

		convey.Convey("And reports the day through its history", func() {
			days, err := g.History(ctx, 5)
			convey.So(err, convey.ShouldBeNil)
			convey.So(days, convey.ShouldResemble, []quota.State{st})
		})
	})
}
