package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/okian/stagerank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.TrendEpsilon, convey.ShouldEqual, 0)
			convey.So(cfg.XPWeekDays, convey.ShouldEqual, 7)
			convey.So(cfg.SnapshotDB, convey.ShouldBeEmpty)
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then derived durations follow the fields", func() {
			convey.So(cfg.BackendTimeout().Seconds(), convey.ShouldEqual, 10)
			convey.So(cfg.LevelsTTL().Minutes(), convey.ShouldEqual, 5)
			convey.So(cfg.XPCheckpointAge().Hours(), convey.ShouldEqual, 168)
		})
	})
}
