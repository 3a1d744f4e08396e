package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("board"),
				WithMetricPrefix("x"),
				WithHistogramBuckets([]float64{1, 10}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.backendRequests.WithLabelValues("getPerformers", "ok").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_board_x_backend_requests_total")
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When a backend call is recorded", func() {
			before := testutil.ToFloat64(globalManager.backendRequests.WithLabelValues("getScoutLevels", "ok"))
			RecordBackendRequest("getScoutLevels", "ok", 12)

			Convey("Then the counter moves by one", func() {
				after := testutil.ToFloat64(globalManager.backendRequests.WithLabelValues("getScoutLevels", "ok"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When queue gauges are set", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(64)

			Convey("Then they hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
			})
		})

		Convey("When a leaderboard build is recorded", func() {
			RecordLeaderboardBuild("today", 3.5, 12)

			Convey("Then the performer gauge follows the scope", func() {
				So(testutil.ToFloat64(globalManager.performersTotal.WithLabelValues("today")), ShouldEqual, 12)
			})
		})

		Convey("Then the remaining recorders do not panic", func() {
			So(func() {
				RecordIngest("all-time", 4)
				RecordIngestRejected("today", "averageRating")
				RecordLevelReload("ok")
				RecordSubmission("queued")
				RecordSubmissionLatency(20)
				RecordPointsAwarded(15)
				RecordPointsAwarded(0)
				RecordSessionEvent("begin")
				RecordSnapshotWrites(3)
				RecordSnapshotQueryLatency(0.4)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				RecordWorkerProcessingLatency(8)
				RecordWorkerError()
				RecordHTTPRequest("/leaderboard", "GET", "200")
				RecordHTTPRequestDuration("/leaderboard", "GET", "200", 2)
				RecordErrorByComponent("backend", "timeout")
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
