package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/triplecrown/internal/adapters/http/api"
	repository "github.com/okian/triplecrown/internal/adapters/repository"
	"github.com/okian/triplecrown/internal/domain/types"
)

type failingLeaderboard struct{}

func (failingLeaderboard) TopN(context.Context, int) ([]types.Entry, error) {
	return nil, errors.New("store offline")
}

func (failingLeaderboard) Rank(context.Context, string) (types.Entry, error) {
	return types.Entry{}, errors.New("store offline")
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func publishedStore() *repository.SnapshotStore {
	s := repository.NewSnapshotStore()
	s.Publish(context.Background(), []types.Entry{
		{Position: 1, Name: "Ann Lee", Gender: "F", TimeTotal: "01:35:00.00"},
		{Position: 2, Name: "Bo Chan", Gender: "M", TimeTotal: "01:40:00.00"},
		{Position: 3, Name: "Cy Diaz", Gender: "M", TimeTotal: "01:41:00.00"},
	})
	return s
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a server over a published leaderboard", t, func() {
		stats := &mockStatsProvider{stats: map[string]interface{}{"runs": 1}}
		mux := http.NewServeMux()
		api.NewServer(publishedStore(), stats, 2).Register(mux)

		Convey("When checking health", func() {
			w := serve(mux, http.MethodGet, "/healthz")

			Convey("Then it reports ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When scraping metrics after a request", func() {
			serve(mux, http.MethodGet, "/healthz")
			w := serve(mux, http.MethodGet, "/metrics")

			Convey("Then the http counters are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "triplecrown_http_requests_total")
			})
		})

		Convey("When reading stats", func() {
			w := serve(mux, http.MethodGet, "/stats")

			Convey("Then the provider's map is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["runs"], ShouldEqual, 1)
			})
		})

		Convey("When asking for the top two", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?limit=2")

			Convey("Then two entries come back in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].Name, ShouldEqual, "Ann Lee")
				So(got[1].Position, ShouldEqual, 2)
			})
		})

		Convey("When the limit is invalid or too large", func() {
			So(serve(mux, http.MethodGet, "/leaderboard").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/leaderboard?limit=0").Code, ShouldEqual, http.StatusBadRequest)
			w := serve(mux, http.MethodGet, "/leaderboard?limit=3")

			Convey("Then the error code says so", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})

		Convey("When ranking a runner by name", func() {
			w := serve(mux, http.MethodGet, "/rank/bo%20chan")

			Convey("Then the entry is found case-insensitively", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Name, ShouldEqual, "Bo Chan")
				So(got.Position, ShouldEqual, 2)
			})
		})

		Convey("When ranking an unknown runner", func() {
			w := serve(mux, http.MethodGet, "/rank/nobody")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, "not_found")
			})
		})

		Convey("When the rank path is empty or nested", func() {
			So(serve(mux, http.MethodGet, "/rank/").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/rank/a/b").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using the wrong method", func() {
			So(serve(mux, http.MethodPost, "/leaderboard?limit=1").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodDelete, "/rank/ann").Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a server whose store fails", t, func() {
		mux := http.NewServeMux()
		api.NewServer(failingLeaderboard{}, &mockStatsProvider{}, 10).Register(mux)

		Convey("Then reads are internal errors", func() {
			So(serve(mux, http.MethodGet, "/leaderboard?limit=1").Code, ShouldEqual, http.StatusInternalServerError)
			So(serve(mux, http.MethodGet, "/rank/ann").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}
