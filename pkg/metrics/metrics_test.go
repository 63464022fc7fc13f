package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "triplecrown")
				So(manager.subsystem, ShouldEqual, "pipeline")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("race"),
				WithSubsystem("link"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "race")
				So(manager.subsystem, ShouldEqual, "link")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 1})
				So(manager.constLabels["env"], ShouldEqual, "test")
			})
		})

		Convey("When empty option values are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "triplecrown")
				So(manager.subsystem, ShouldEqual, "pipeline")
				So(manager.histogramBuckets, ShouldResemble, defaultStageBuckets)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When row flow is recorded", func() {
			manager.RecordRowsRead("ttt", 10)
			manager.RecordRowsNormalized("ttt", 9)
			manager.RecordRowRejected("ttt", "malformed_row")

			Convey("Then counters reflect it", func() {
				So(testutil.ToFloat64(manager.rowsRead.WithLabelValues("ttt")), ShouldEqual, 10)
				So(testutil.ToFloat64(manager.rowsNormalized.WithLabelValues("ttt")), ShouldEqual, 9)
				So(testutil.ToFloat64(manager.rowsRejected.WithLabelValues("ttt", "malformed_row")), ShouldEqual, 1)
			})
		})

		Convey("When linkage results are set", func() {
			manager.SetKeyCollisions("lc", 2)
			manager.SetLinkage(5, 8, 1)

			Convey("Then gauges hold the last values", func() {
				So(testutil.ToFloat64(manager.keyCollisions.WithLabelValues("lc")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.matchedRecords), ShouldEqual, 5)
				So(testutil.ToFloat64(manager.supersetRecords), ShouldEqual, 8)
				So(testutil.ToFloat64(manager.fanoutKeys), ShouldEqual, 1)
			})
		})

		Convey("When runs are recorded", func() {
			manager.RecordRun(StatusOK, 1700000000)
			manager.RecordRun(StatusFailed, 1800000000)

			Convey("Then only successful runs move the timestamp", func() {
				So(testutil.ToFloat64(manager.runsTotal.WithLabelValues(StatusOK)), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.runsTotal.WithLabelValues(StatusFailed)), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.lastRunUnix), ShouldEqual, 1700000000)
			})
		})

		Convey("When stages and fetches are observed", func() {
			manager.ObserveStage("normalize", 0.02)
			manager.RecordSourceFetch("lc", "cache")

			Convey("Then the collectors exist", func() {
				So(testutil.CollectAndCount(manager.stageDuration), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.sourceFetches.WithLabelValues("lc", "cache")), ShouldEqual, 1)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then package helpers do not panic", func() {
			So(func() {
				RecordRowsRead("x", 1)
				RecordRowsNormalized("x", 1)
				RecordRowRejected("x", "r")
				SetKeyCollisions("x", 0)
				SetLinkage(0, 0, 0)
				ObserveStage("s", 0.1)
				RecordRun(StatusOK, 1)
				RecordSourceFetch("x", "http")
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 1.5)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestPush(t *testing.T) {
	Convey("Given a fake pushgateway", t, func() {
		var gotPath, gotMethod string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotMethod = r.Method
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		reg := prometheus.NewRegistry()
		NewManager(WithPrometheusRegistry(reg)).RecordRowsRead("ttt", 3)

		Convey("When pushing", func() {
			err := PushFrom(context.Background(), reg, srv.URL, "nightly")

			Convey("Then the job path is used", func() {
				So(err, ShouldBeNil)
				So(gotMethod, ShouldEqual, http.MethodPut)
				So(gotPath, ShouldEqual, "/metrics/job/nightly")
			})
		})

		Convey("When no gateway URL is set", func() {
			err := PushFrom(context.Background(), reg, "", "nightly")

			Convey("Then push fails", func() {
				So(errors.Is(err, ErrPushFailed), ShouldBeTrue)
			})
		})
	})

	Convey("Given a gateway that rejects pushes", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := Push(context.Background(), srv.URL, "")

		Convey("Then the error wraps ErrPushFailed", func() {
			So(errors.Is(err, ErrPushFailed), ShouldBeTrue)
		})
	})
}
