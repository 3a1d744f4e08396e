package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/stagerank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("STAGERANK_ADDR", ":8080")
			_ = os.Setenv("STAGERANK_QUEUE_SIZE", "64")
			_ = os.Setenv("STAGERANK_TREND_EPSILON", "0.05")
			_ = os.Setenv("STAGERANK_BACKEND_URL", "https://backend.test/exec")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.TrendEpsilon, convey.ShouldEqual, 0.05)
				convey.So(cfg.BackendURL, convey.ShouldEqual, "https://backend.test/exec")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
queue_size: 300
worker_count: 24
snapshot_db: "/tmp/stagerank.db"
session_timezone: "UTC"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("STAGERANK_CONFIG", tmpFile)
			_ = os.Setenv("STAGERANK_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.SnapshotDB, convey.ShouldEqual, "/tmp/stagerank.db")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config from an explicit file", func() {
			tmpFile := createTempConfigFile(`
max_leaderboard_limit: 25
xp_week_days: 14
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("STAGERANK_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.LoadFrom(ctx, tmpFile)

			convey.Convey("Then the file wins over STAGERANK_CONFIG", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 25)
				convey.So(cfg.XPCheckpointAge().Hours(), convey.ShouldEqual, 14*24)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("STAGERANK_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("STAGERANK_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("STAGERANK_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(*config.Config){
			"addr":                  func(c *config.Config) { c.Addr = " " },
			"queue_size":            func(c *config.Config) { c.QueueSize = 0 },
			"worker_count":          func(c *config.Config) { c.WorkerCount = -1 },
			"trend_epsilon":         func(c *config.Config) { c.TrendEpsilon = -0.1 },
			"backend_url":           func(c *config.Config) { c.BackendURL = "not a url" },
			"session_timezone":      func(c *config.Config) { c.SessionTimezone = "Mars/Olympus" },
			"max_leaderboard_limit": func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
		}
		for field, mutate := range cases {
			convey.Convey("When "+field+" is invalid", func() {
				cfg := config.New(context.Background())
				mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then the error names the field", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, field)
				})
			})
		}
	})
}

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"STAGERANK_CONFIG",
		"STAGERANK_ADDR",
		"STAGERANK_QUEUE_SIZE",
		"STAGERANK_WORKER_COUNT",
		"STAGERANK_TREND_EPSILON",
		"STAGERANK_BACKEND_URL",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "stagerank-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
