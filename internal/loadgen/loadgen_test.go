package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/stagerank/internal/adapters/backend"
	"github.com/okian/stagerank/internal/adapters/http/api"
	service "github.com/okian/stagerank/internal/app"
	"github.com/okian/stagerank/internal/twin"
	"github.com/okian/stagerank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	Convey("Given a stagerank server over a generated twin", t, func() {
		So(logger.Init(), ShouldBeNil)
		seed := twin.Generate([]string{"North Room", "South Room"}, 4)
		seed.AddRaters(3)
		backendSrv := httptest.NewServer(twin.New(seed))
		defer backendSrv.Close()

		ctx := context.Background()
		svc := service.New(backend.New(backendSrv.URL), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		mux := http.NewServeMux()
		api.NewServer(svc, svc, 100).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		var tokens []string
		for vi := 0; vi < 2; vi++ {
			for n := 1; n <= 3; n++ {
				tokens = append(tokens, twin.RaterToken(vi, n))
			}
		}
		cfg := Config{
			BaseURL:       srv.URL,
			Tokens:        tokens,
			Workers:       3,
			SettleTimeout: 20 * time.Second,
			PollInterval:  10 * time.Millisecond,
			OutputFile:    filepath.Join(t.TempDir(), "out", "submissions.json"),
		}

		Convey("When a load run completes", func() {
			stats, err := Run(ctx, cfg)

			Convey("Then every rater's batch is accepted and the boards add up", func() {
				So(err, ShouldBeNil)
				So(stats.Sessions, ShouldEqual, 6)
				So(stats.Submissions, ShouldEqual, 6)
				So(stats.RatingsSent, ShouldEqual, 24)
				So(stats.Accepted, ShouldEqual, 6)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.PointsEarned, ShouldBeGreaterThanOrEqualTo, 24*5)
				So(stats.VenuesVerified, ShouldEqual, 2)
				So(cfg.OutputFile, ShouldNotBeEmpty)
			})

			Convey("Then a second run finds nothing left to rate", func() {
				again, err := Run(ctx, cfg)
				So(err, ShouldBeNil)
				So(again.Submissions, ShouldEqual, 0)
				So(again.VenuesVerified, ShouldEqual, 2)
			})
		})

		Convey("When no tokens are given", func() {
			_, err := Run(ctx, Config{BaseURL: srv.URL})

			Convey("Then the run is refused", func() {
				So(err, ShouldEqual, ErrNoTokens)
			})
		})

		Convey("When a token is unknown", func() {
			_, err := Run(ctx, Config{BaseURL: srv.URL, Tokens: []string{"nope"}})

			Convey("Then login fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestVerifyLeaderboardConsistency(t *testing.T) {
	Convey("Given leaderboard rows", t, func() {
		good := []Entry{
			{Rank: 1, Tier: "1st", PerformerID: "a", AverageRating: 4.5, RatingCount: 2},
			{Rank: 2, Tier: "2nd", PerformerID: "b", AverageRating: 4.5, RatingCount: 1},
			{Rank: 3, Tier: "3rd", PerformerID: "c", AverageRating: 3, RatingCount: 5},
			{Rank: 4, PerformerID: "d", AverageRating: 1, RatingCount: 1},
			{Rank: 5, PerformerID: "e"},
		}

		Convey("Then a well ordered board passes", func() {
			So(verifyLeaderboardConsistency(good), ShouldBeNil)
		})

		Convey("Then an unrated performer ahead of a rated one fails", func() {
			bad := []Entry{{Rank: 1, PerformerID: "e"}, {Rank: 2, Tier: "2nd", PerformerID: "a", AverageRating: 1, RatingCount: 1}}
			So(verifyLeaderboardConsistency(bad), ShouldNotBeNil)
		})

		Convey("Then a tie broken the wrong way fails", func() {
			bad := []Entry{good[1], good[0]}
			bad[0].Rank, bad[1].Rank = 1, 2
			So(verifyLeaderboardConsistency(bad), ShouldNotBeNil)
		})

		Convey("Then a gap in ranks fails", func() {
			bad := []Entry{good[0], good[2]}
			So(verifyLeaderboardConsistency(bad), ShouldNotBeNil)
		})

		Convey("Then a tier on an unrated performer fails", func() {
			bad := []Entry{{Rank: 1, Tier: "1st", PerformerID: "e"}}
			So(verifyLeaderboardConsistency(bad), ShouldNotBeNil)
		})
	})
}
