package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/stagerank/pkg/logger"
)

const (
	resultAccepted = "accepted"
	resultFailed   = "failed"
)

// outcome is the fate of one submission.
type outcome struct {
	sub   Submission
	ack   AckResponse
	state string
	err   error
}

// submitAll posts submissions with a pool of workers.
func submitAll(ctx context.Context, cfg *Config, c *HTTPClient, subs []Submission, stats *Stats) []outcome {
	logger.Get().Info(ctx, "submitting ratings",
		logger.Int("submissions", len(subs)),
		logger.Int("workers", cfg.Workers))

	results := make([]outcome, len(subs))
	var queued, duplicate, rejected int64

	jobs := make(chan int, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				sub := subs[idx]
				var ack AckResponse
				status, err := c.do(ctx, http.MethodPost, "/ratings", sub.SessionID, sub, &ack)
				results[idx] = outcome{sub: sub, ack: ack, err: err}
				switch {
				case err != nil:
					atomic.AddInt64(&rejected, 1)
					if cfg.Verbose {
						logger.Get().Warn(ctx, "submission rejected", logger.String("submission_id", sub.SubmissionID), logger.Error(err))
					}
				case status == http.StatusOK && ack.Duplicate:
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&queued, 1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range subs {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submissions = len(subs)
	for _, s := range subs {
		stats.RatingsSent += len(s.Ratings)
	}
	stats.Queued = int(atomic.LoadInt64(&queued))
	stats.Duplicate = int(atomic.LoadInt64(&duplicate))
	stats.Rejected = int(atomic.LoadInt64(&rejected))
	return results
}

// awaitResults polls every queued submission until it settles or the settle
// timeout passes.
func awaitResults(ctx context.Context, cfg *Config, c *HTTPClient, results []outcome, stats *Stats) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.SettleTimeout)
	defer cancel()

	pending := 0
	for i := range results {
		if results[i].err == nil {
			pending++
		}
	}
	logger.Get().Info(ctx, "waiting for submissions to settle", logger.Int("pending", pending))

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for pending > 0 {
		for i := range results {
			r := &results[i]
			if r.err != nil || r.state != "" {
				continue
			}
			var ack AckResponse
			if err := c.get(ctx, "/ratings/"+r.ack.ID, "", &ack); err != nil {
				if ctx.Err() != nil {
					break
				}
				continue
			}
			if ack.State == resultAccepted || ack.State == resultFailed {
				r.ack, r.state = ack, ack.State
				pending--
			}
		}
		if pending == 0 {
			break
		}
		select {
		case <-ctx.Done():
			stats.Unsettled = pending
			tally(results, stats)
			return fmt.Errorf("%d submissions still pending: %w", pending, ctx.Err())
		case <-ticker.C:
		}
	}
	tally(results, stats)
	return nil
}

func tally(results []outcome, stats *Stats) {
	stats.Accepted, stats.Failed, stats.PointsEarned = 0, 0, 0
	for _, r := range results {
		switch r.state {
		case resultAccepted:
			stats.Accepted++
			stats.PointsEarned += r.ack.Points
		case resultFailed:
			stats.Failed++
		}
	}
}
