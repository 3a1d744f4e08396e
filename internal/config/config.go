// Package config defines service configuration and its loading.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BackendURL is the action endpoint of the ratings backend.
	BackendURL string `koanf:"backend_url"`

	// BackendTimeoutMS bounds a single backend call.
	BackendTimeoutMS int `koanf:"backend_timeout_ms"`

	// BackendRPS and BackendBurst throttle outbound backend calls.
	BackendRPS   float64 `koanf:"backend_rps"`
	BackendBurst int     `koanf:"backend_burst"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of submission workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// TrendEpsilon is the tolerance under which a change is STABLE.
	TrendEpsilon float64 `koanf:"trend_epsilon"`

	// XPWeekDays is the age of the XP checkpoint used as XP trend baseline.
	XPWeekDays int `koanf:"xp_week_days"`

	// LevelsTTLSeconds is how long a fetched scout level table is reused.
	LevelsTTLSeconds int `koanf:"levels_ttl_seconds"`

	// SnapshotDB is a SQLite path for snapshots and sessions; empty keeps
	// both in memory.
	SnapshotDB string `koanf:"snapshot_db"`

	// SessionTimezone is the IANA zone whose midnight ends a session.
	SessionTimezone string `koanf:"session_timezone"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		BackendURL:          "http://127.0.0.1:9081/exec",
		BackendTimeoutMS:    10_000,
		BackendRPS:          20,
		BackendBurst:        5,
		QueueSize:           1_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          10_000,
		MaxLeaderboardLimit: 100,
		TrendEpsilon:        0,
		XPWeekDays:          7,
		LevelsTTLSeconds:    300,
		SnapshotDB:          "",
		SessionTimezone:     "Local",
	}
}
