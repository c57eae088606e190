package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	metrics "github.com/matrank/matrank/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := metrics.NewManager(
			metrics.WithPrometheusRegistry(registry),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("ratings"),
		)

		Convey("Then construction should register every metric", func() {
			So(manager, ShouldNotBeNil)
			families, err := registry.Gather()
			So(err, ShouldBeNil)

			names := make(map[string]struct{}, len(families))
			for _, family := range families {
				names[family.GetName()] = struct{}{}
			}
			// Counters and histograms only appear in Gather output after
			// first use, so check the ones visible at construction time.
			So(len(families), ShouldBeGreaterThanOrEqualTo, 1)
			So(names, ShouldContainKey, "test_ratings_tracked_athletes")
		})

		Convey("And duplicate registration on the same registry should panic", func() {
			So(func() {
				metrics.NewManager(metrics.WithPrometheusRegistry(registry))
			}, ShouldPanic)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the package-level helpers", t, func() {
		Convey("Then recording through them should not panic", func() {
			So(func() {
				metrics.RecordMatchesRated(10)
				metrics.RecordMatchesSkipped(2)
				metrics.RecordPeriodsProcessed(4)
				metrics.UpdateTrackedAthletes(123)
				metrics.RecordCalibrationRuns(6)
				metrics.ObserveSimulationDuration(time.Now().Add(-time.Millisecond))
				metrics.RecordLeaderboardBuild()
				metrics.ObserveStoreQuery("matches_between", time.Now())
			}, ShouldNotPanic)
		})

		Convey("And the custom registry should expose the recorded metrics", func() {
			metrics.UpdateTrackedAthletes(42)
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)

			found := false
			for _, family := range families {
				if family.GetName() == "matrank_ratings_tracked_athletes" {
					found = true
					So(family.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 42)
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
