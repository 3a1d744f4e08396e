package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/session"
	. "github.com/smartystreets/goconvey/convey"
	_ "modernc.org/sqlite"
)

var berlin = time.FixedZone("CET", 3600)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

var rater = model.Identity{Email: "r@example.test", Venue: "The Pit", FirstName: "Rae", LastName: "Ter"}

func TestEndOfDay(t *testing.T) {
	Convey("Given an evening timestamp", t, func() {
		at := time.Date(2026, 5, 2, 21, 30, 0, 0, berlin)

		Convey("Then the end of day is one millisecond before midnight", func() {
			eod := session.EndOfDay(at, berlin)
			So(eod.Equal(time.Date(2026, 5, 2, 23, 59, 59, 999_000_000, berlin)), ShouldBeTrue)
			So(eod.Add(time.Millisecond).Day(), ShouldEqual, 3)
		})

		Convey("Then a UTC instant is placed on the zone's calendar day", func() {
			utc := time.Date(2026, 5, 2, 23, 30, 0, 0, time.UTC)
			So(session.EndOfDay(utc, berlin).Day(), ShouldEqual, 3)
		})
	})
}

func TestManager(t *testing.T) {
	for name, newStore := range map[string]func() session.Store{
		"memory": func() session.Store { return session.NewMemoryStore() },
		"sqlite": func() session.Store {
			db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "sessions.db"))
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { _ = db.Close() })
			store, err := session.NewSQLiteStore(db)
			if err != nil {
				t.Fatal(err)
			}
			return store
		},
	} {
		Convey("Given a "+name+" session manager at 8pm", t, func() {
			ctx := context.Background()
			clk := &clock{t: time.Date(2026, 5, 2, 20, 0, 0, 0, berlin)}
			m := session.NewManager(newStore(), session.WithLocation(berlin), session.WithClock(clk.now))

			s, err := m.Begin(ctx, rater)
			So(err, ShouldBeNil)

			Convey("Then the session ends at the end of the login day", func() {
				So(s.ID, ShouldNotBeEmpty)
				So(s.ExpiresAt.Equal(time.Date(2026, 5, 2, 23, 59, 59, 999_000_000, berlin)), ShouldBeTrue)
				So(s.Identity(), ShouldResemble, rater)
			})

			Convey("When resumed at the last millisecond", func() {
				clk.t = time.Date(2026, 5, 2, 23, 59, 59, 999_000_000, berlin)
				got, err := m.Resume(ctx, s.ID)

				Convey("Then it is still valid", func() {
					So(err, ShouldBeNil)
					So(got.Email, ShouldEqual, rater.Email)
				})
			})

			Convey("When resumed the next morning", func() {
				clk.t = time.Date(2026, 5, 3, 9, 0, 0, 0, berlin)
				_, err := m.Resume(ctx, s.ID)

				Convey("Then it is expired and cleared", func() {
					So(errors.Is(err, session.ErrExpired), ShouldBeTrue)
					_, err = m.Resume(ctx, s.ID)
					So(errors.Is(err, session.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When the rater changes their name later that night", func() {
				clk.t = time.Date(2026, 5, 2, 22, 0, 0, 0, berlin)
				got, err := m.Update(ctx, s.ID, " Raya ", "Terr")

				Convey("Then the name changes while identity and expiry are kept", func() {
					So(err, ShouldBeNil)
					So(got.FirstName, ShouldEqual, "Raya")
					So(got.LastName, ShouldEqual, "Terr")
					So(got.Email, ShouldEqual, rater.Email)
					So(got.Venue, ShouldEqual, rater.Venue)
					So(got.ExpiresAt.Equal(s.ExpiresAt), ShouldBeTrue)
					again, err := m.Resume(ctx, s.ID)
					So(err, ShouldBeNil)
					So(again.FirstName, ShouldEqual, "Raya")
					So(again.Venue, ShouldEqual, rater.Venue)
				})
			})

			Convey("When an unknown session is updated", func() {
				_, err := m.Update(ctx, "missing", "A", "B")

				Convey("Then it is not found", func() {
					So(errors.Is(err, session.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When the session is ended", func() {
				So(m.End(ctx, s.ID), ShouldBeNil)

				Convey("Then it can no longer be resumed", func() {
					_, err := m.Resume(ctx, s.ID)
					So(errors.Is(err, session.ErrNotFound), ShouldBeTrue)
					So(m.End(ctx, s.ID), ShouldBeNil)
				})
			})

			Convey("When beginning without a venue", func() {
				_, err := m.Begin(ctx, model.Identity{Email: "x@example.test"})

				Convey("Then the identity is rejected", func() {
					So(errors.Is(err, session.ErrInvalid), ShouldBeTrue)
				})
			})
		})
	}
}
