package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/fairmeet/internal/adapters/http/api"
	"github.com/okian/fairmeet/internal/adapters/repository"
	service "github.com/okian/fairmeet/internal/app"
	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/domain/quota"
	"github.com/okian/fairmeet/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newMux(t *testing.T, opts ...service.Option) *http.ServeMux {
	t.Helper()
	svc := service.New(append([]service.Option{service.WithWorkerCount(2), service.WithQueueSize(128)}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

const twoParties = `{"category":"coffee","parties":[
	{"id":"you","label":"You","position":{"lat":40.7128,"lng":-74.0060}},
	{"id":"friend-1","label":"Friend 1","position":{"lat":40.7306,"lng":-73.9352}}]}`

func TestServer_Meetups(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(t)

		Convey("When posting two positioned parties", func() {
			w := do(mux, http.MethodPost, "/meetups", twoParties)

			Convey("Then a ranked recommendation is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var rec service.Recommendation
				So(json.Unmarshal(w.Body.Bytes(), &rec), ShouldBeNil)
				So(string(rec.Status), ShouldEqual, "ranked")
				So(len(rec.Venues), ShouldBeGreaterThan, 0)
				So(w.Body.String(), ShouldContainSubstring, `"place_id":"mock-cafe-`)
				So(w.Body.String(), ShouldContainSubstring, `"travel_times"`)
			})
		})

		Convey("When the body is malformed", func() {
			w := do(mux, http.MethodPost, "/meetups", `{"parties":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
		})

		Convey("When a position is out of range", func() {
			w := do(mux, http.MethodPost, "/meetups", `{"parties":[{"id":"a","position":{"lat":91,"lng":0}}]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is wrong", func() {
			w := do(mux, http.MethodGet, "/meetups", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a server whose quota is exhausted", t, func() {
		mux := newMux(t, service.WithGuard(quota.NewGuard(quota.WithDailyLimit(1))))
		So(do(mux, http.MethodPost, "/meetups", twoParties).Code, ShouldEqual, http.StatusOK)

		w := do(mux, http.MethodPost, "/meetups", strings.Replace(twoParties, "coffee", "parks", 1))

		Convey("Then the degraded sentinel is still a 200", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"place_id":"quota-limit"`)
			So(w.Body.String(), ShouldContainSubstring, `"degraded":true`)
		})

		Convey("And /quota reports the usage", func() {
			w := do(mux, http.MethodGet, "/quota", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var st quota.Status
			So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
			So(st.CallCount, ShouldEqual, 1)
			So(st.Remaining, ShouldEqual, 0)
			So(w.Body.String(), ShouldNotContainSubstring, `"history"`)
		})
	})

	Convey("Given a server whose quota is kept in SQLite", t, func() {
		store, err := repository.Open(filepath.Join(t.TempDir(), "quota.db"))
		So(err, ShouldBeNil)
		guard := quota.NewGuard(quota.WithStore(store))
		mux := newMux(t, service.WithGuard(guard), service.WithClosers(store))
		So(do(mux, http.MethodPost, "/meetups", twoParties).Code, ShouldEqual, http.StatusOK)

		Convey("Then /quota includes the daily history", func() {
			w := do(mux, http.MethodGet, "/quota?days=3", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				CallCount int           `json:"call_count"`
				History   []quota.State `json:"history"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.CallCount, ShouldEqual, 1)
			So(len(body.History), ShouldEqual, 1)
			So(body.History[0].CallCount, ShouldEqual, 1)
		})

		Convey("And an out of range day count is rejected", func() {
			So(do(mux, http.MethodGet, "/quota?days=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/quota?days=many", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_Sessions(t *testing.T) {
	Convey("Given a created session", t, func() {
		mux := newMux(t)
		w := do(mux, http.MethodPost, "/sessions", "")
		So(w.Code, ShouldEqual, http.StatusCreated)
		var sess service.SessionView
		So(json.Unmarshal(w.Body.Bytes(), &sess), ShouldBeNil)
		base := "/sessions/" + sess.ID

		Convey("It can be read back", func() {
			w := do(mux, http.MethodGet, base, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"friend-1"`)
		})

		Convey("Parties can be added and removed down to two", func() {
			w := do(mux, http.MethodPost, base+"/parties", "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			var p model.Party
			So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
			So(p.ID, ShouldEqual, "friend-2")

			So(do(mux, http.MethodDelete, base+"/parties/friend-2", "").Code, ShouldEqual, http.StatusNoContent)
			So(do(mux, http.MethodDelete, base+"/parties/friend-1", "").Code, ShouldEqual, http.StatusConflict)
			So(do(mux, http.MethodDelete, base+"/parties/ghost", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Positions are set and validated", func() {
			w := do(mux, http.MethodPut, base+"/parties/you/position", `{"position":{"lat":40.7128,"lng":-74.006}}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"lat":40.7128`)

			w = do(mux, http.MethodPut, base+"/parties/you/position", `{"position":{"lat":40,"lng":181}}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A fully positioned session is recommended", func() {
			do(mux, http.MethodPut, base+"/parties/you/position", `{"position":{"lat":40.7128,"lng":-74.006}}`)
			do(mux, http.MethodPut, base+"/parties/friend-1/position", `{"position":{"lat":40.7306,"lng":-73.9352}}`)

			w := do(mux, http.MethodPost, base+"/recommend", `{"category":"movies"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ranked"`)
			So(w.Body.String(), ShouldContainSubstring, `"category":"movies"`)
		})

		Convey("An unpositioned session is skipped", func() {
			w := do(mux, http.MethodPost, base+"/recommend", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"skipped"`)
		})

		Convey("Deleted sessions are gone", func() {
			So(do(mux, http.MethodDelete, base, "").Code, ShouldEqual, http.StatusNoContent)
			So(do(mux, http.MethodGet, base, "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Info(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(t)

		Convey("Categories list their place types", func() {
			w := do(mux, http.MethodGet, "/categories", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `{"category":"dining","place_type":"restaurant"}`)
		})

		Convey("Stats are served as JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Health serves the metrics exposition", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Unknown routes are not found", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Unavailable(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)

		w := do(mux, http.MethodPost, "/meetups", twoParties)
		So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		So(w.Body.String(), ShouldContainSubstring, `"code":"unavailable"`)
	})
}
