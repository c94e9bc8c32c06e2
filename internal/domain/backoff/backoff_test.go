package backoff_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/gamelogs/internal/domain/backoff"
	"github.com/smartystreets/goconvey/convey"
)

var errRateLimited = errors.New("429")

func isRateLimited(err error) bool { return errors.Is(err, errRateLimited) }

func TestExponential(t *testing.T) {
	convey.Convey("Given an exponential policy with base 2 and a 10s cooldown", t, func() {
		policy := backoff.Exponential(2, 10*time.Second, isRateLimited, 0)

		convey.Convey("Then the first attempt should not wait", func() {
			convey.So(policy(0, nil), convey.ShouldEqual, 0)
			convey.So(policy(0, errRateLimited), convey.ShouldEqual, 0)
		})

		convey.Convey("Then later attempts should wait base^attempt seconds", func() {
			convey.So(policy(1, nil), convey.ShouldEqual, 2*time.Second)
			convey.So(policy(2, errors.New("timeout")), convey.ShouldEqual, 4*time.Second)
			convey.So(policy(3, nil), convey.ShouldEqual, 8*time.Second)
			convey.So(policy(4, nil), convey.ShouldEqual, 16*time.Second)
		})

		convey.Convey("Then a rate limited cause should add the cooldown", func() {
			convey.So(policy(1, errRateLimited), convey.ShouldEqual, 12*time.Second)
			convey.So(policy(3, errRateLimited), convey.ShouldEqual, 18*time.Second)
		})

		convey.Convey("Then growth should stay unbounded without a cap", func() {
			convey.So(policy(10, nil), convey.ShouldEqual, 1024*time.Second)
		})

		convey.Convey("Then huge exponents should saturate instead of overflowing", func() {
			convey.So(policy(200, nil), convey.ShouldEqual, time.Duration(math.MaxInt64))
			convey.So(policy(200, errRateLimited), convey.ShouldEqual, time.Duration(math.MaxInt64))
		})
	})

	convey.Convey("Given a capped policy", t, func() {
		policy := backoff.Exponential(3, 5*time.Second, isRateLimited, 20*time.Second)

		convey.So(policy(2, nil), convey.ShouldEqual, 9*time.Second)
		convey.So(policy(3, nil), convey.ShouldEqual, 20*time.Second)
		convey.So(policy(3, errRateLimited), convey.ShouldEqual, 25*time.Second)
	})

	convey.Convey("Given a fractional base", t, func() {
		policy := backoff.Exponential(1.5, 0, nil, 0)

		convey.So(policy(2, errRateLimited), convey.ShouldEqual, 2250*time.Millisecond)
	})
}

func TestSleep(t *testing.T) {
	convey.Convey("Given the real sleeper", t, func() {
		convey.Convey("When the wait is short", func() {
			start := time.Now()
			err := backoff.Sleep(context.Background(), 5*time.Millisecond)
			convey.So(err, convey.ShouldBeNil)
			convey.So(time.Since(start), convey.ShouldBeGreaterThanOrEqualTo, 5*time.Millisecond)
		})

		convey.Convey("When the context is cancelled first", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := backoff.Sleep(ctx, time.Hour)
			convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
		})

		convey.Convey("When the wait is zero", func() {
			convey.So(backoff.Sleep(context.Background(), 0), convey.ShouldBeNil)
		})
	})
}
