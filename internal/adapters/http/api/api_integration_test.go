package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/stagerank/internal/adapters/backend"
	"github.com/okian/stagerank/internal/adapters/http/api"
	service "github.com/okian/stagerank/internal/app"
	"github.com/okian/stagerank/internal/twin"
	"github.com/okian/stagerank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAPIAgainstTwin(t *testing.T) {
	Convey("Given the API served over a twin backend", t, func() {
		So(logger.Init(), ShouldBeNil)
		tw := twin.New(twin.DefaultSeed(), twin.WithLocation(time.UTC))
		backendSrv := httptest.NewServer(tw)
		defer backendSrv.Close()

		svc := service.New(backend.New(backendSrv.URL), service.WithWorkerCount(1), service.WithLocation(time.UTC))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, 100).Register(ctx, mux)

		Convey("When a rater logs in and rates a performer", func() {
			w := serve(mux, http.MethodPost, "/session", `{"token":"demo-token"}`, "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			sid, _ := decode(w)["id"].(string)
			So(sid, ShouldNotBeEmpty)

			w = serve(mux, http.MethodPost, "/ratings",
				`{"ratings":[{"performer_id":"p-lantern-3","name":"Devon Reyes","stars":4}]}`, sid)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			id, _ := decode(w)["id"].(string)

			Convey("Then the submission is eventually accepted", func() {
				var state string
				for i := 0; i < 200 && state != "accepted"; i++ {
					time.Sleep(10 * time.Millisecond)
					w := serve(mux, http.MethodGet, "/ratings/"+id, "", "")
					state, _ = decode(w)["state"].(string)
				}
				So(state, ShouldEqual, "accepted")

				Convey("And the performer shows up on tonight's board", func() {
					w := serve(mux, http.MethodGet, "/leaderboard?venue=The+Lantern", "", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					var entries []api.Entry
					So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
					var found bool
					for _, e := range entries {
						if e.PerformerID == "p-lantern-3" {
							found = e.RatingCount == 1
						}
					}
					So(found, ShouldBeTrue)
				})

				Convey("And tonight's ratings remember it", func() {
					w := serve(mux, http.MethodGet, "/me/ratings", "", sid)
					So(decode(w)["p-lantern-3"], ShouldEqual, float64(4))
				})
			})
		})

		Convey("When a rater tries to act as another venue's rater", func() {
			w := serve(mux, http.MethodPost, "/session", `{"token":"demo-token"}`, "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			sid, _ := decode(w)["id"].(string)

			put := serve(mux, http.MethodPut, "/session", `{"email":"blue@example.com","venue":"Blue Door"}`, sid)
			post := serve(mux, http.MethodPost, "/ratings",
				`{"venue":"Blue Door","ratings":[{"performer_id":"p-bluedoor-2","stars":1}]}`, sid)

			Convey("Then both requests are rejected", func() {
				So(put.Code, ShouldEqual, http.StatusBadRequest)
				So(post.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then the real rater's record is untouched", func() {
				w := serve(mux, http.MethodPost, "/session", `{"token":"blue-token"}`, "")
				So(w.Code, ShouldEqual, http.StatusCreated)
				blue, _ := decode(w)["id"].(string)

				w = serve(mux, http.MethodGet, "/me/ratings", "", blue)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w), ShouldBeEmpty)
			})
		})
	})
}
