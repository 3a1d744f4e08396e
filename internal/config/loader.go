package config

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "STAGERANK_"
	envFileVar = "STAGERANK_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if STAGERANK_CONFIG is set
//  3. env (prefix STAGERANK_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, os.Getenv(envFileVar))
}

// LoadFrom is Load with an explicit YAML file; an empty path skips the file.
func LoadFrom(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, loadFailed(path, err)
		}
	}

	// STAGERANK_QUEUE_SIZE -> queue_size; underscores are kept to match
	// the flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envFileVar {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, loadFailed("env", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, loadFailed("unmarshal", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr", "must not be empty")
	case c.QueueSize <= 0:
		return invalid("queue_size", "must be positive")
	case c.WorkerCount <= 0:
		return invalid("worker_count", "must be positive")
	case c.DedupeSize <= 0:
		return invalid("dedupe_size", "must be positive")
	case c.MaxLeaderboardLimit <= 0:
		return invalid("max_leaderboard_limit", "must be positive")
	case c.TrendEpsilon < 0:
		return invalid("trend_epsilon", "must not be negative")
	case c.XPWeekDays < 0:
		return invalid("xp_week_days", "must not be negative")
	case c.BackendTimeoutMS <= 0:
		return invalid("backend_timeout_ms", "must be positive")
	case c.BackendRPS < 0:
		return invalid("backend_rps", "must not be negative")
	}
	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("backend_url", "must be an absolute URL")
	}
	if _, err := c.Location(); err != nil {
		return invalid("session_timezone", err.Error())
	}
	return nil
}

// Location resolves SessionTimezone.
func (c *Config) Location() (*time.Location, error) {
	if c.SessionTimezone == "" || c.SessionTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.SessionTimezone)
}

// BackendTimeout returns BackendTimeoutMS as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}

// LevelsTTL returns LevelsTTLSeconds as a duration.
func (c *Config) LevelsTTL() time.Duration {
	return time.Duration(c.LevelsTTLSeconds) * time.Second
}

// XPCheckpointAge returns how far back the XP trend baseline is taken.
func (c *Config) XPCheckpointAge() time.Duration {
	return time.Duration(c.XPWeekDays) * 24 * time.Hour
}
