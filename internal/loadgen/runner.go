package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/stagerank/pkg/logger"
)

// ErrNoTokens is returned by Run when the config names no login tokens.
var ErrNoTokens = errors.New("no login tokens configured")

func (cfg *Config) withDefaults() {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = defaultSettleTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
}

// Run logs in every token, submits one generated batch of ratings per rater,
// waits for the batches to settle and verifies tonight's boards.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if len(cfg.Tokens) == 0 {
		return nil, ErrNoTokens
	}
	cfg.withDefaults()
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting stagerank load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("tokens", len(cfg.Tokens)),
		logger.Int("workers", cfg.Workers),
		logger.Float64("rps", cfg.RPS),
		logger.String("timeout", cfg.Timeout.String()))

	c := newHTTPClient(cfg.BaseURL, cfg.Timeout, cfg.RPS)

	if err := checkServiceHealth(ctx, c); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	p, err := preparePlan(ctx, c, cfg.Tokens)
	if err != nil {
		return stats, fmt.Errorf("preparing run failed: %w", err)
	}
	stats.Sessions = len(p.sessions)

	subs, err := generateSubmissions(ctx, c, p)
	if err != nil {
		return stats, fmt.Errorf("submission generation failed: %w", err)
	}

	results := submitAll(ctx, &cfg, c, subs, stats)

	if err := awaitResults(ctx, &cfg, c, results, stats); err != nil {
		return stats, fmt.Errorf("waiting for submissions failed: %w", err)
	}

	if err := verifyBoards(ctx, c, expectedCounts(p, results), stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveSubmissionsToFile(ctx, cfg.OutputFile, subs); err != nil {
			logger.Get().Warn(ctx, "failed to save submissions to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func checkServiceHealth(ctx context.Context, c *HTTPClient) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	return nil
}

func saveSubmissionsToFile(ctx context.Context, filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "submissions saved to file", logger.String("filename", filename))
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, ratingsPerSecond float64
	if stats.Submissions > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submissions) * percentageMultiplier
	}
	if stats.Duration > 0 {
		ratingsPerSecond = float64(stats.RatingsSent) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("sessions", stats.Sessions),
		logger.Int("submissions", stats.Submissions),
		logger.Int("ratingsSent", stats.RatingsSent),
		logger.Int("queued", stats.Queued),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("accepted", stats.Accepted),
		logger.Int("failed", stats.Failed),
		logger.Int("pointsEarned", stats.PointsEarned),
		logger.Int("venuesVerified", stats.VenuesVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("ratingsPerSecond", ratingsPerSecond))
}
