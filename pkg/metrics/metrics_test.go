package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with the ergowatch namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "ergowatch")
				So(manager.subsystem, ShouldEqual, "posture")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("office"),
				WithSubsystem("desk"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"station": "desk-3"}),
				WithPrometheusRegistry(registry),
			)
			manager.category.Set(2)

			Convey("Then series carry the namespace and constant labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() == "office_desk_category" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "desk-3")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording cycles", func() {
			before := testutil.ToFloat64(globalManager.cycles.WithLabelValues(OutcomeNoPerson))
			RecordCycle(OutcomeNoPerson)
			RecordCycle(OutcomeNoPerson)

			Convey("Then the outcome counter increases", func() {
				after := testutil.ToFloat64(globalManager.cycles.WithLabelValues(OutcomeNoPerson))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording a snapshot", func() {
			RecordSnapshot(5, 3,
				map[string]float64{"head": 12.5, "back": 4},
				map[string]int{"head": 1, "back": 0},
			)

			Convey("Then category and segment gauges reflect it", func() {
				So(testutil.ToFloat64(globalManager.category), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.segmentAngle.WithLabelValues("head")), ShouldEqual, 12.5)
				So(testutil.ToFloat64(globalManager.segmentCode.WithLabelValues("head")), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.segmentCode.WithLabelValues("back")), ShouldEqual, 0)
			})
		})

		Convey("When recording reports", func() {
			before := testutil.ToFloat64(globalManager.reports.WithLabelValues(ReportFailed))
			RecordReport(ReportFailed, 2000)

			Convey("Then the failed counter increases", func() {
				So(testutil.ToFloat64(globalManager.reports.WithLabelValues(ReportFailed))-before, ShouldEqual, 1)
			})
		})

		Convey("When recording snapshot updates", func() {
			RecordSnapshotUpdate(1_700_000_000)

			Convey("Then the last update time is exported", func() {
				So(testutil.ToFloat64(globalManager.snapshotLastUnix), ShouldEqual, 1_700_000_000)
			})
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("posture", "POST", "200")
				RecordHTTPRequestDuration("posture", "POST", "200", 3)
				RecordErrorByEndpoint("posture", "POST", "client_error")
				RecordErrorByType("client_error", "medium")
				RecordErrorByComponent("notify", "timeout")
				RecordErrorLatency("http", "client_error", 1)
				RecordEvaluationLatency(4)
				RecordRecorderError()
				UpdateCaptureIndex(7)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then the custom registry exposes them", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, mf := range families {
					names = append(names, mf.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "ergowatch_posture_http_requests_total")
				So(joined, ShouldContainSubstring, "ergowatch_posture_capture_index")
			})
		})
	})
}
