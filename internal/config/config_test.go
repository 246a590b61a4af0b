package config_test

import (
	"runtime"
	"testing"

	"github.com/ladderhq/ladder/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Tau, convey.ShouldEqual, 0.5)
			convey.So(cfg.MinGames, convey.ShouldEqual, 5)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.MetricsAddr, convey.ShouldBeEmpty)
		})
	})
}
