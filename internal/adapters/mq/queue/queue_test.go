package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/stagerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sub(id string) model.Submission {
	return model.Submission{ID: id, RaterEmail: "r@example.test", Venue: "v"}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity two", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(2))
		defer func() { _ = q.Close() }()

		Convey("When a submission is enqueued and dequeued", func() {
			So(q.Enqueue(ctx, sub("s1")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 1)
			got := <-q.Dequeue(ctx)

			Convey("Then it comes out unchanged", func() {
				So(got.ID, ShouldEqual, "s1")
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, sub("s1")), ShouldBeTrue)
			So(q.Enqueue(ctx, sub("s2")), ShouldBeTrue)

			Convey("Then further submissions are refused", func() {
				So(q.Enqueue(ctx, sub("s3")), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, sub("s1")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails and the backlog still drains", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, sub("s2")), ShouldBeFalse)
				var ids []string
				for s := range q.Dequeue(ctx) {
					ids = append(ids, s.ID)
				}
				So(ids, ShouldResemble, []string{"s1"})
			})
		})
	})
}

func TestInMemoryQueue_Concurrent(t *testing.T) {
	Convey("Given producers and one consumer", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		q := NewInMemoryQueue(WithCapacity(16))

		var wg sync.WaitGroup
		for p := range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 50 {
					for !q.Enqueue(ctx, sub(fmt.Sprintf("%d-%d", p, i))) {
						time.Sleep(time.Millisecond)
					}
				}
			}()
		}
		go func() {
			wg.Wait()
			_ = q.Close()
		}()

		count := 0
		for range q.Dequeue(ctx) {
			count++
		}

		Convey("Then every submission is delivered once", func() {
			So(count, ShouldEqual, 200)
		})
	})
}
